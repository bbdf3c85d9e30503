package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// revokedMarker is the sentinel value stored for a revoked token.
var revokedMarker = []byte("1")

// RevocationRegistry is a TTL-bounded denylist of tokens revoked before
// their natural expiry.
type RevocationRegistry struct {
	store Store
}

// NewRevocationRegistry creates a RevocationRegistry over store.
func NewRevocationRegistry(store Store) *RevocationRegistry {
	return &RevocationRegistry{store: store}
}

// RevocationKey returns the backend key for token. Tokens are hashed so the
// key length is fixed and raw credentials never sit in the cache.
func RevocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// Revoke denies token for ttl. A ttl <= 0 means the token has already
// expired, so nothing is recorded.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, RevocationKey(token), revokedMarker, ttl)
}

// IsRevoked reports whether token has been revoked. A backend failure is
// returned as an error wrapping ErrUnavailable, never as "not revoked".
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.store.Get(ctx, RevocationKey(token))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrMiss):
		return false, nil
	case errors.Is(err, ErrUnavailable):
		return false, err
	default:
		return false, fmt.Errorf("%w: revocation check: %v", ErrUnavailable, err)
	}
}
