package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// RetryAfterSeconds is sent with every 503 response.
const RetryAfterSeconds = "1"

// isUnavailable reports whether err means a backing service could not be reached.
func isUnavailable(err error) bool {
	return errors.Is(err, store.ErrUnavailable) || errors.Is(err, cache.ErrUnavailable)
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Dependency outages
	case isUnavailable(err):
		return http.StatusServiceUnavailable

	// Authentication errors
	case auth.IsUnauthenticated(err),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case auth.IsForbidden(err):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// ErrorCategory returns the machine-readable category reported alongside
// the message for err.
func ErrorCategory(err error) string {
	switch MapErrorToStatusCode(err) {
	case http.StatusServiceUnavailable:
		return shared.CategoryUnavailable
	case http.StatusUnauthorized:
		return shared.CategoryUnauthenticated
	case http.StatusForbidden:
		return shared.CategoryForbidden
	case http.StatusNotFound:
		return shared.CategoryNotFound
	case http.StatusConflict:
		return shared.CategoryConflict
	case http.StatusBadRequest:
		return shared.CategoryValidationFailed
	default:
		return shared.CategoryInternal
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var vErr *domain.ValidationError

	switch {
	case isUnavailable(err):
		return "Service temporarily unavailable"

	// Every authentication failure reads the same to the client.
	case auth.IsUnauthenticated(err):
		return shared.MessageUnauthenticated

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid username or password"

	case errors.Is(err, auth.ErrInactiveAccount):
		return "Account is inactive"

	case errors.Is(err, auth.ErrAdminRequired):
		return "Administrator access required"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, store.ErrDuplicate):
		return "Username or email already registered"

	case errors.As(err, &vErr):
		return vErr.Error()

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. Raw error detail only
// reaches the logs, redacted. A non-empty fallback replaces the generic
// message of a 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", RetryAfterSeconds)
	}

	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, ErrorCategory(err), message, err, opts...)
}
