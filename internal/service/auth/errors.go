package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (iat or nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrRevokedToken indicates the token was revoked by a logout before it expired
	ErrRevokedToken = errors.New("authentication token has been revoked")

	// ErrUnknownSubject indicates the token names a user that no longer exists
	ErrUnknownSubject = errors.New("token subject does not exist")

	// ErrInactiveAccount indicates the account exists but has been deactivated
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrAdminRequired indicates the operation is restricted to administrators
	ErrAdminRequired = errors.New("administrator role required")
)

// IsUnauthenticated reports whether err means the caller could not be
// identified at all. Such failures share one client-facing message.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrTokenNotYetValid) ||
		errors.Is(err, ErrRevokedToken) ||
		errors.Is(err, ErrUnknownSubject)
}

// IsForbidden reports whether err means the caller is known but not allowed.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrInactiveAccount) || errors.Is(err, ErrAdminRequired)
}
