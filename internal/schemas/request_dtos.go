// Package schemas defines the request structures for various operations in the application.
package schemas

// RegistrationRequest is a struct that represents a registration request
// Email is required and must be a valid email
// Password is required, must be at least 8 characters and pass the password policy
// PasswordConfirmation is required and must equal Password
type RegistrationRequest struct {
	Email                string `json:"email" validate:"required,email"`
	FirstName            string `json:"first_name" validate:"max=150"`
	LastName             string `json:"last_name" validate:"max=150"`
	Password             string `json:"password" validate:"required,min=8,password_validation"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

// ActivationRequest is a struct that represents an account activation request
// UID is the URL-safe encoded user id from the activation link
// Token is the signed activation token from the activation link
type ActivationRequest struct {
	UID   string `json:"uid"`
	Token string `json:"token" validate:"required"`
}

// TokenRequest is a struct that represents a token obtain request
type TokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is a struct that represents a RefreshToken request
// Refresh is required and must be a valid refresh token
type RefreshTokenRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
