package auth

import "errors"

var (
	// Validation errors.
	ErrInvalidInput     = errors.New("invalid input")
	ErrPasswordMismatch = errors.New("passwords do not match")

	// Registration conflicts.
	ErrEmailInUse    = errors.New("email already in use")
	ErrUsernameInUse = errors.New("username already taken")

	// Login failures share one error so callers cannot tell a missing
	// account from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors.
	ErrNoToken           = errors.New("no token")
	ErrTokenMalformed    = errors.New("token invalid")
	ErrTokenExpired      = errors.New("token expired")
	ErrSigningKeyMissing = errors.New("signing key is required")

	// Internal failures.
	ErrCorruptCredential  = errors.New("stored credential is corrupt")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
