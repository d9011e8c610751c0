package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound      = errors.New("resource not found")
	ErrStoryNotFound = errors.New("story not found")

	// User & authentication errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	// Session errors
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionConflict  = errors.New("session was advanced concurrently")

	// Catalog & validation errors
	ErrInvalidToneStyle  = errors.New("unknown tone style")
	ErrInvalidTimeFlavor = errors.New("unknown time flavor")
	ErrInvalidCast       = errors.New("cast does not satisfy the story roles")
	ErrStoryNotPublished = errors.New("story is not published")
	ErrInvalidInput      = errors.New("invalid input data")

	// Wallet errors
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Generation errors
	ErrGenerationFailed = errors.New("chapter generation failed")
)
