package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tasktrack-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasktrack-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	if app.config.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(app.config.Server.RequestTimeout()))

	authLimit := app.rateLimit(app.config.RateLimit.AuthPerMinute)
	tasksLimit := app.rateLimit(app.config.RateLimit.TasksPerMinute)
	generalLimit := app.rateLimit(app.config.RateLimit.GeneralPerMinute)

	systemHandler := api.NewSystemHandler(version, app.deps.Checks, app.logger)
	authHandler := api.NewAuthHandler(app.accounts, app.resolver, app.logger)
	taskHandler := api.NewTaskHandler(app.tasks, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.resolver, app.logger)

	r.With(generalLimit).Get("/", systemHandler.Root)
	r.With(generalLimit).Get("/health", systemHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints
			r.With(authLimit).Post("/register", authHandler.Register)
			r.With(authLimit).Post("/login", authHandler.Login)

			r.With(generalLimit, authMiddleware.Authenticate).Post("/logout", authHandler.Logout)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(tasksLimit)
			r.Use(authMiddleware.Authenticate)

			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.With(authMiddleware.RequireAdmin).Get("/admin/stats", taskHandler.GetStats)
			r.Get("/{id}", taskHandler.GetTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	return r
}

// rateLimit returns a per-client limiter middleware, or a pass-through when
// rate limiting is disabled.
func (app *application) rateLimit(perMinute int) func(http.Handler) http.Handler {
	if !app.config.RateLimit.Enabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return apiMiddleware.NewRateLimiter(perMinute).Limit
}
