package constants

// Messages d'erreur HTTP courants (côté API, en anglais pour le frontend)
const (
	ErrMethodNotAllowed = "Method not allowed"
	ErrServerError      = "Server error"
	ErrInvalidData      = "Invalid request body"
	ErrNotAuthenticated = "Not authenticated"
	ErrInvalidToken     = "Invalid token"

	// Codes d'accès
	ErrCodeRequired      = "Access code is required"
	ErrCodeNotFound      = "Invalid access code"
	ErrCodeInactive      = "This access code is no longer active"
	ErrCodeExhausted     = "This access code has reached its maximum usage limit"
	ErrCodeAlreadyExists = "Access code already exists"
	ErrCodeIDInvalid     = "Invalid access code id"
	ErrCodeMissing       = "Access code not found"

	// Inscription / connexion admin
	ErrAllFieldsRequired  = "All fields are required"
	ErrPasswordTooShort   = "Password must be at least 6 characters long"
	ErrUsernameTaken      = "Admin username already exists"
	ErrInvalidCredentials = "Invalid username or password"

	// Journal des clics
	ErrClickFieldsRequired = "Button and page are required"
	ErrClickNotFound       = "Click log not found"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
)
