package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestJWTService(t *testing.T, secret string, skew time.Duration, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(secret, skew, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, ClockSkewSeconds: 5})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tokenLifetime := 30 * time.Minute
	svc := newTestJWTService(t, testSecret, 0, fixedTime)

	token, err := svc.GenerateToken(context.Background(), "alice", domain.RoleAdmin, tokenLifetime)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	// Compare Unix timestamps to avoid timezone issues
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(tokenLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	other, err := svc.GenerateToken(context.Background(), "alice", domain.RoleAdmin, tokenLifetime)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "every token carries a unique id")
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	tokenLifetime := 30 * time.Minute
	issuer := newTestJWTService(t, testSecret, 0, fixedTime)
	token, err := issuer.GenerateToken(context.Background(), "alice", domain.RoleUser, tokenLifetime)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name      string
		validator *hmacJWTService
		token     string
		wantErr   error
	}{
		{
			name:      "valid token",
			validator: issuer,
			token:     token,
		},
		{
			name:      "just before expiry",
			validator: newTestJWTService(t, testSecret, 0, fixedTime.Add(tokenLifetime-time.Second)),
			token:     token,
		},
		{
			name:      "expired token",
			validator: newTestJWTService(t, testSecret, 0, fixedTime.Add(tokenLifetime+time.Second)),
			token:     token,
			wantErr:   ErrExpiredToken,
		},
		{
			name:      "expired token within leeway",
			validator: newTestJWTService(t, testSecret, 10*time.Second, fixedTime.Add(tokenLifetime+5*time.Second)),
			token:     token,
		},
		{
			name:      "issued in the future",
			validator: newTestJWTService(t, testSecret, 0, fixedTime.Add(-time.Minute)),
			token:     token,
			wantErr:   ErrTokenNotYetValid,
		},
		{
			name:      "invalid signature",
			validator: newTestJWTService(t, wrongSecret, 0, fixedTime),
			token:     token,
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "malformed token",
			validator: issuer,
			token:     "this.is.not.a.valid.jwt.token",
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "empty token",
			validator: issuer,
			token:     "",
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "alg none rejected",
			validator: issuer,
			token:     noneToken,
			wantErr:   ErrInvalidToken,
		},
		{
			name:      "missing expiry rejected",
			validator: issuer,
			token:     noExpiry,
			wantErr:   ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tt.validator.ValidateToken(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Subject)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrMissingToken, ErrInvalidToken, ErrExpiredToken,
		ErrTokenNotYetValid, ErrRevokedToken, ErrUnknownSubject,
	} {
		assert.True(t, IsUnauthenticated(err), err.Error())
		assert.False(t, IsForbidden(err), err.Error())
	}
	for _, err := range []error{ErrInactiveAccount, ErrAdminRequired} {
		assert.True(t, IsForbidden(err), err.Error())
		assert.False(t, IsUnauthenticated(err), err.Error())
	}
}
