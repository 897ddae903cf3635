package schemas

// User-facing error and confirmation messages. Decode failures, lookup misses
// and token mismatches all surface ErrInvalidActivationLink so a caller cannot
// probe which accounts exist.
const (
	ErrInvalidActivationLink = "Invalid activation link."
	ErrUIDRequired           = "UID is required."
	ErrInvalidCredentials    = "No active account found with the given credentials."
	ErrInvalidRefreshToken   = "Token is invalid or expired."
	ErrUnauthorized          = "Authentication credentials were not provided or are invalid."
	ErrInternal              = "Something went wrong on our end. Please try again later."

	MsgRegistered       = "User registered successfully. Please check your email to activate your account."
	MsgActivated        = "Account activated successfully. You can now login."
	MsgAlreadyActivated = "Account is already activated."
)

// Field-level validation messages returned in ValidationErrorDTO maps.
const (
	ErrEmailTaken       = "A user with that email already exists."
	ErrEmailUnreachable = "This email address cannot receive mail."
	ErrPasswordMismatch = "Passwords do not match."
)
