package schemas

// ErrorDTO is a struct that represents a generic error response.
// Error carries a single user-facing message. Activation failures always use
// the same message regardless of which check rejected the link.
type ErrorDTO struct {
	Error string `json:"error"`
}

// ValidationErrorDTO maps request fields to their validation error messages.
type ValidationErrorDTO map[string][]string

// MessageDTO is a struct that represents a plain confirmation response
type MessageDTO struct {
	Message string `json:"message"`
}

// RegistrationDTO is a struct that represents a successful registration response
// Message tells the caller to check their inbox
// Email is the normalized address the activation mail was sent to
type RegistrationDTO struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// UserDTO is a struct that represents a user in token responses
type UserDTO struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenPairDTO is a struct that represents a token obtain response
// Access is the short-lived JWT used for auth
// Refresh is the long-lived token used to get a new access token
type TokenPairDTO struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    UserDTO `json:"user"`
}

// AccessTokenDTO is a struct that represents a token refresh response
type AccessTokenDTO struct {
	Access string `json:"access"`
}

// MetadataDTO is a struct that represents the version metadata response
type MetadataDTO struct {
	ApiVersion string `json:"apiVersion"`
	ApiName    string `json:"apiName"`
}
