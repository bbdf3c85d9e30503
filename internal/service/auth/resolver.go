package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"golang.org/x/sync/singleflight"
)

// UserLookup is the slice of store.UserStore the resolver needs.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// Session is the authenticated context of one request.
type Session struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
}

// Resolver turns a bearer token into a trusted identity.
type Resolver struct {
	jwt         JWTService
	users       UserLookup
	revocations *cache.RevocationRegistry
	identities  *cache.IdentityCache
	identityTTL time.Duration
	clockSkew   time.Duration
	now         func() time.Time
	group       singleflight.Group
	logger      *slog.Logger
}

// ResolverConfig holds the resolver's collaborators.
type ResolverConfig struct {
	JWT         JWTService
	Users       UserLookup
	Revocations *cache.RevocationRegistry
	Identities  *cache.IdentityCache
	IdentityTTL time.Duration
	ClockSkew   time.Duration
	Logger      *slog.Logger
}

// NewResolver creates a Resolver. It panics if a collaborator is missing.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.JWT == nil || cfg.Users == nil || cfg.Revocations == nil || cfg.Identities == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("resolver requires jwt service, user lookup, revocation registry and identity cache")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		jwt:         cfg.JWT,
		users:       cfg.Users,
		revocations: cfg.Revocations,
		identities:  cfg.Identities,
		identityTTL: cfg.IdentityTTL,
		clockSkew:   cfg.ClockSkew,
		now:         time.Now,
		logger:      log.With(slog.String("component", "auth_resolver")),
	}
}

// Resolve authenticates token.
//
// The revocation check runs before signature validation and fails closed:
// when the registry cannot answer, the error wraps cache.ErrUnavailable and
// the request must be refused.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	if token == "" {
		return nil, ErrMissingToken
	}

	revoked, err := r.revocations.IsRevoked(ctx, token)
	if err != nil {
		log.Error("revocation check failed", slog.String("error", err.Error()))
		return nil, err
	}
	if revoked {
		log.Debug("rejected revoked token")
		return nil, ErrRevokedToken
	}

	claims, err := r.jwt.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	identity, err := r.identity(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !identity.IsActive {
		return nil, ErrInactiveAccount
	}

	return &Session{
		Identity:  *identity,
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// identityFetchTimeout bounds a shared identity read. The read outlives the
// caller that started it, so it needs its own deadline.
const identityFetchTimeout = 5 * time.Second

// identity reads through the identity cache. Concurrent misses for the same
// username share a single store read; each caller still stops waiting when
// its own context ends, and the read itself is detached from the caller that
// happened to start it.
func (r *Resolver) identity(ctx context.Context, username string) (*domain.Identity, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	cached, err := r.identities.Lookup(ctx, username)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("identity cache lookup failed, reading store",
			slog.String("username", username),
			slog.String("error", err.Error()))
	}

	flight := r.group.DoChan(username, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), identityFetchTimeout)
		defer cancel()

		user, err := r.users.GetByUsername(fetchCtx, username)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, ErrUnknownSubject
			}
			return nil, fmt.Errorf("failed to load user for token subject: %w", err)
		}

		identity := user.Identity()
		if err := r.identities.Populate(fetchCtx, username, identity, r.identityTTL); err != nil {
			log.Warn("failed to populate identity cache",
				slog.String("username", username),
				slog.String("error", err.Error()))
		}
		return identity, nil
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		identity := res.Val.(domain.Identity)
		return &identity, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RequireAdmin returns ErrAdminRequired unless identity holds the admin role.
func RequireAdmin(identity domain.Identity) error {
	if !identity.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// Logout revokes the session's token for the rest of its lifetime, plus the
// validation leeway, and drops the cached identity.
func (r *Resolver) Logout(ctx context.Context, session *Session) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	ttl := session.ExpiresAt.Sub(r.now()) + r.clockSkew
	if err := r.revocations.Revoke(ctx, session.Token, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if err := r.identities.Invalidate(ctx, session.Identity.Username); err != nil {
		log.Warn("failed to invalidate identity cache on logout",
			slog.String("username", session.Identity.Username),
			slog.String("error", err.Error()))
	}

	log.Info("logout",
		slog.String("username", session.Identity.Username),
		slog.Duration("revoked_for", ttl))
	return nil
}
