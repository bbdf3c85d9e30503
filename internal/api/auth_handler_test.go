package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		payload       interface{}
		wantStatus    int
		wantCategory  string
		wantErrSubstr string
	}{
		{
			name:       "valid registration",
			payload:    map[string]string{"username": "Alice_1", "email": "Alice@Example.com", "password": testPassword},
			wantStatus: http.StatusCreated,
		},
		{
			name:          "invalid email",
			payload:       map[string]string{"username": "bob", "email": "not-an-email", "password": testPassword},
			wantStatus:    http.StatusBadRequest,
			wantCategory:  shared.CategoryValidationFailed,
			wantErrSubstr: "email",
		},
		{
			name:          "weak password",
			payload:       map[string]string{"username": "bob", "email": "bob@example.com", "password": "password"},
			wantStatus:    http.StatusBadRequest,
			wantCategory:  shared.CategoryValidationFailed,
			wantErrSubstr: "password",
		},
		{
			name:          "username with dash",
			payload:       map[string]string{"username": "bo-b", "email": "bob@example.com", "password": testPassword},
			wantStatus:    http.StatusBadRequest,
			wantCategory:  shared.CategoryValidationFailed,
			wantErrSubstr: "username",
		},
		{
			name:          "short username",
			payload:       map[string]string{"username": "ab", "email": "bob@example.com", "password": testPassword},
			wantStatus:    http.StatusBadRequest,
			wantCategory:  shared.CategoryValidationFailed,
			wantErrSubstr: "username",
		},
		{
			name:         "malformed json",
			payload:      `{"username": "bob",`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: shared.CategoryValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newHandlerFixture(t)

			rr := f.do(t, http.MethodPost, "/auth/register", "", tt.payload)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantStatus == http.StatusCreated {
				var user UserResponse
				decode(t, rr, &user)
				assert.Equal(t, "alice_1", user.Username)
				assert.Equal(t, "alice@example.com", user.Email)
				assert.Equal(t, domain.RoleUser, user.Role)
				assert.True(t, user.IsActive)
				assert.NotZero(t, user.ID)
				assert.NotContains(t, rr.Body.String(), "hashed")
				return
			}

			var body shared.ErrorResponse
			decode(t, rr, &body)
			assert.Equal(t, tt.wantCategory, body.Category)
			assert.NotEmpty(t, body.TraceID)
			if tt.wantErrSubstr != "" {
				assert.Contains(t, body.Error, tt.wantErrSubstr)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	f.signup(t, "alice")

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"same username different case", map[string]string{"username": "ALICE", "email": "other@example.com", "password": testPassword}},
		{"same email", map[string]string{"username": "alice2", "email": "alice@example.com", "password": testPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/auth/register", "", tt.payload)
			require.Equal(t, http.StatusConflict, rr.Code)

			var body shared.ErrorResponse
			decode(t, rr, &body)
			assert.Equal(t, shared.CategoryConflict, body.Category)
		})
	}
	assert.Equal(t, 1, f.users.Count())
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	tests := []struct {
		name         string
		payload      map[string]string
		wantStatus   int
		wantCategory string
	}{
		{"valid credentials", map[string]string{"username": "alice", "password": testPassword}, http.StatusOK, ""},
		{"username is case folded", map[string]string{"username": "ALICE", "password": testPassword}, http.StatusOK, ""},
		{
			"wrong password",
			map[string]string{"username": "alice", "password": "Wrong1234"},
			http.StatusUnauthorized,
			shared.CategoryUnauthenticated,
		},
		{
			"unknown user",
			map[string]string{"username": "nobody", "password": testPassword},
			http.StatusUnauthorized,
			shared.CategoryUnauthenticated,
		},
		{
			"missing password",
			map[string]string{"username": "alice"},
			http.StatusBadRequest,
			shared.CategoryValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/auth/login", "", tt.payload)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantStatus == http.StatusOK {
				var resp LoginResponse
				decode(t, rr, &resp)
				assert.NotEmpty(t, resp.AccessToken)
				assert.Equal(t, "bearer", resp.TokenType)
				assert.False(t, resp.ExpiresAt.IsZero())
				assert.Equal(t, "alice", resp.User.Username)
				return
			}

			var body shared.ErrorResponse
			decode(t, rr, &body)
			assert.Equal(t, tt.wantCategory, body.Category)
		})
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	f.signup(t, "alice")
	f.users.SetActive("alice", false)

	rr := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": testPassword,
	})
	require.Equal(t, http.StatusForbidden, rr.Code)

	var body shared.ErrorResponse
	decode(t, rr, &body)
	assert.Equal(t, shared.CategoryForbidden, body.Category)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)
	token := f.signup(t, "alice")

	rr := f.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var msg MessageResponse
	decode(t, rr, &msg)
	assert.Equal(t, "Logged out successfully", msg.Message)

	// The revoked token is rejected everywhere, with the generic message.
	for _, path := range []string{"/tasks", "/auth/logout"} {
		method := http.MethodGet
		if strings.HasPrefix(path, "/auth") {
			method = http.MethodPost
		}
		rr = f.do(t, method, path, token, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code, path)

		var body shared.ErrorResponse
		decode(t, rr, &body)
		assert.Equal(t, shared.MessageUnauthenticated, body.Error)
	}

	// A fresh login still works.
	rr = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": testPassword,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogout_RequiresToken(t *testing.T) {
	t.Parallel()
	f := newHandlerFixture(t)

	rr := f.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
