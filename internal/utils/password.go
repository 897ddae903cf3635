package utils

import (
	"strings"
	"unicode"
)

// minSimilarityLength is the shortest attribute fragment considered in the
// similarity check. Anything shorter matches too easily to be meaningful.
const minSimilarityLength = 4

// PasswordTooSimilar reports whether the password overlaps with any of the
// supplied user attributes (email, first name, last name). Attributes are
// split on non-letter/digit runes so "jane.doe@x.com" is checked as "jane",
// "doe", "x" and "com".
func PasswordTooSimilar(password string, attributes ...string) bool {
	lowered := strings.ToLower(password)

	for _, attribute := range attributes {
		for _, part := range splitAttribute(attribute) {
			if len(part) < minSimilarityLength {
				continue
			}
			if strings.Contains(lowered, part) || strings.Contains(part, lowered) {
				return true
			}
		}
	}

	return false
}

// PasswordEntirelyNumeric reports whether the password contains digits only.
func PasswordEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return password != ""
}

func splitAttribute(attribute string) []string {
	return strings.FieldsFunc(strings.ToLower(attribute), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
