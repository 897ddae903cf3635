package utils

import "strings"

// NormalizeEmail lowercases the domain part of an email address. Uniqueness
// checks and logins both run on the normalized form so "a@X.com" and
// "a@x.com" are the same account.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
