// Package schemas defines the data structures
package schemas

import (
	"strings"
	"time"
)

// User represents the data model for a storefront customer account.
type User struct {
	ID        int64      `json:"id"`         // Unique identifier for the user.
	Email     string     `json:"email"`      // Normalized email address, unique.
	FirstName string     `json:"first_name"` // First name of the user.
	LastName  string     `json:"last_name"`  // Last name of the user.
	Password  string     `json:"-"`          // Bcrypt hash of the password, never the plaintext.
	IsActive  bool       `json:"is_active"`  // False until the account is activated via email.
	CreatedAt *time.Time `json:"created_at"` // Timestamp when the user was created.
}

// Name returns the display name used in emails and token responses.
func (u *User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
