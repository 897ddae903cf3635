// Package tokens implements the account activation credentials: a URL-safe
// codec for user ids and a stateless, time-bound, state-bound token generator.
package tokens

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
)

// ErrDecode is returned when an encoded user id cannot be reversed.
var ErrDecode = errors.New("invalid user id encoding")

// EncodeUserID encodes a user id into an unpadded URL-safe base64 string for
// use in activation links. The encoding is reversible and carries no
// integrity protection; that is the activation token's job.
func EncodeUserID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUserID reverses EncodeUserID. It fails with ErrDecode on any
// malformed input: wrong alphabet or padding, a non-numeric payload, or a
// non-positive id.
func DecodeUserID(encoded string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: payload is not a decimal id", ErrDecode)
	}

	if id <= 0 {
		return 0, fmt.Errorf("%w: id out of range", ErrDecode)
	}

	return id, nil
}
