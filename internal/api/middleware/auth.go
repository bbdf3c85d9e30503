package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
)

// SessionResolver turns a bearer token into an authenticated session.
// *auth.Resolver implements it.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	resolver SessionResolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(resolver SessionResolver, logger *slog.Logger) *AuthMiddleware {
	if resolver == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("resolver cannot be nil for AuthMiddleware")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate resolves the bearer token of the request and stores the
// resulting session in the request context. Requests without a usable token
// are rejected with 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}

		session, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := shared.WithSession(r.Context(), session)
		ctx = logger.WithContext(ctx, logger.FromContextOrDefault(ctx, m.logger).
			With(slog.Int64("user_id", session.Identity.ID)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated requests whose identity is not an
// administrator. It must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := shared.SessionFromContext(r.Context())
		if !ok {
			m.reject(w, r, auth.ErrMissingToken)
			return
		}
		if err := auth.RequireAdmin(session.Identity); err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cache.ErrUnavailable):
		w.Header().Set("Retry-After", "1")
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			shared.CategoryUnavailable, "Service temporarily unavailable", err)
	case auth.IsUnauthenticated(err):
		w.Header().Set("WWW-Authenticate", "Bearer")
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
			shared.CategoryUnauthenticated, shared.MessageUnauthenticated, err)
	case errors.Is(err, auth.ErrInactiveAccount):
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden,
			shared.CategoryForbidden, "Account is inactive", err, shared.WithElevatedLogLevel())
	case errors.Is(err, auth.ErrAdminRequired):
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden,
			shared.CategoryForbidden, "Administrator access required", err, shared.WithElevatedLogLevel())
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			shared.CategoryInternal, "Authentication error", err)
	}
}
