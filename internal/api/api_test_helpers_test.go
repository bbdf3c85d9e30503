package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/tasktrack-api/internal/api/middleware"
	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "api-handler-test-secret-at-least-32-chars"
	testPassword = "Password123"
)

// handlerFixture wires the real services over in-memory stores and the
// memory cache, and mounts the handlers on a chi router.
type handlerFixture struct {
	users      *mocks.MockUserStore
	tasks      *mocks.MockTaskStore
	stats      *mocks.MockStatsStore
	cacheStore *mocks.MockCacheStore
	logs       *logger.TestLogBuffer
	router     http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	logs, log := logger.NewTestLogger()
	f := &handlerFixture{
		users:      mocks.NewMockUserStore(),
		tasks:      mocks.NewMockTaskStore(),
		cacheStore: mocks.NewMockCacheStore(),
		logs:       logs,
	}
	f.stats = &mocks.MockStatsStore{Users: f.users, Tasks: f.tasks}

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	accounts, err := service.NewAccountService(service.AccountServiceConfig{
		Users:         f.users,
		Tx:            &mocks.MockTxRunner{},
		JWT:           jwtService,
		Hasher:        &mocks.MockPasswordHasher{},
		Verifier:      &mocks.MockPasswordVerifier{CompareFn: mocks.PrefixCompare},
		TokenLifetime: 30 * time.Minute,
		Logger:        log,
	})
	require.NoError(t, err)

	tasks, err := service.NewTaskService(service.TaskServiceConfig{
		Tasks:      f.tasks,
		Stats:      f.stats,
		Pages:      cache.NewTaskPageCache(f.cacheStore, log),
		StatsCache: cache.NewStatsCache(f.cacheStore),
		PageTTL:    time.Minute,
		StatsTTL:   5 * time.Minute,
		Logger:     log,
	})
	require.NoError(t, err)

	resolver := auth.NewResolver(auth.ResolverConfig{
		JWT:         jwtService,
		Users:       f.users,
		Revocations: cache.NewRevocationRegistry(f.cacheStore),
		Identities:  cache.NewIdentityCache(f.cacheStore, log),
		IdentityTTL: 5 * time.Minute,
		Logger:      log,
	})

	authHandler := NewAuthHandler(accounts, resolver, log)
	taskHandler := NewTaskHandler(tasks, log)
	authMiddleware := middleware.NewAuthMiddleware(resolver, log)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.With(authMiddleware.RequireAdmin).Get("/tasks/admin/stats", taskHandler.GetStats)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	})
	f.router = r

	return f
}

// do sends a request through the router. body may be nil, a string of raw
// JSON, or any value to be encoded.
func (f *handlerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

// signup registers username and logs in, returning the access token.
func (f *handlerFixture) signup(t *testing.T, username string) string {
	t.Helper()

	rr := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp LoginResponse
	decode(t, rr, &resp)
	return resp.AccessToken
}

// promote makes username an administrator directly in the store. Call it
// before the user's first authenticated request, while no identity is cached.
func (f *handlerFixture) promote(t *testing.T, username string) {
	t.Helper()
	_, err := f.users.SetRole(context.Background(), username, domain.RoleAdmin)
	require.NoError(t, err)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v), rr.Body.String())
}
