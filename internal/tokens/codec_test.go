package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeUserID(t *testing.T) {
	testCases := []struct {
		name string
		id   int64
	}{
		{"SmallId", 1},
		{"TypicalId", 42},
		{"LargeId", 9223372036854775807},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeUserID(tc.id)
			decoded, err := DecodeUserID(encoded)
			assert.NoError(t, err)
			assert.Equal(t, tc.id, decoded)
		})
	}
}

func TestEncodeUserIDIsURLSafe(t *testing.T) {
	encoded := EncodeUserID(123456789)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")
}

func TestDecodeUserIDRejectsMalformedInput(t *testing.T) {
	testCases := []struct {
		name    string
		encoded string
	}{
		{"Empty", ""},
		{"BadAlphabet", "!!!!"},
		{"Padded", "NDI="},
		{"NonNumericPayload", "aGVsbG8"},
		{"Zero", EncodeUserID(0)},
		{"Negative", EncodeUserID(-5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeUserID(tc.encoded)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}
