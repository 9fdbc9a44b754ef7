// Package common defines shared constants and sentinel errors used across
// studentvault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("incorrect credentials")

	// Cipher errors.
	ErrDecode     = errors.New("malformed base64 input")
	ErrInvalidKey = errors.New("invalid key length")
	ErrInvalidIV  = errors.New("invalid iv length")

	// Password hash errors.
	ErrCorruptCredential = errors.New("corrupt credential hash")

	// Secret store errors. Both mean the service cannot serve the request
	// and are never reported as client errors.
	ErrSecretUnavailable = errors.New("secret unavailable")
	ErrSecretCorrupt     = errors.New("secret corrupt")
	ErrInvalidSecretFile = errors.New("invalid secret file entry")

	// Token verification errors.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrMalformedToken   = errors.New("malformed token")

	// Request boundary errors.
	ErrMissingCredential = errors.New("missing bearer credential")
)

// IsSecretFailure reports whether err comes from the secret store rather than
// from the caller's input.
func IsSecretFailure(err error) bool {
	return errors.Is(err, ErrSecretUnavailable) || errors.Is(err, ErrSecretCorrupt)
}

// IsTokenFailure reports whether err is one of the token verification errors
// that the request boundary collapses into a single unauthorized outcome.
func IsTokenFailure(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrMalformedToken)
}
