package auth

import (
	"context"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for subject (a username)
	// carrying role, valid for ttl from now.
	GenerateToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error)

	// ValidateToken checks the signature and time claims of tokenString and
	// extracts the claims. Returns ErrInvalidToken, ErrExpiredToken or
	// ErrTokenNotYetValid on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the verified content of an access token.
type Claims struct {
	// Subject is the username the token was issued for.
	Subject string `json:"sub,omitempty"`

	// Role is the role the user held when the token was issued. Authorization
	// decisions use the cached identity, not this value.
	Role domain.Role `json:"role,omitempty"`

	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
