package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/taskpulse-api/internal/api/middleware"
	"github.com/phrazzld/taskpulse-api/internal/recurrence"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
)

// RouterDeps lists the services the HTTP API is built on.
type RouterDeps struct {
	UserService      service.UserService
	TaskService      service.TaskService
	DashboardService service.DashboardService
	JWTService       auth.JWTService

	// Recurrence is optional; without it the admin route is not mounted.
	Recurrence recurrence.Runner

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	authHandler := NewAuthHandler(deps.UserService, log)
	taskHandler := NewTaskHandler(deps.TaskService, log)
	dashboardHandler := NewDashboardHandler(deps.DashboardService, log)
	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.JWTService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)

			r.Get("/dashboard", dashboardHandler.GetDashboard)

			if deps.Recurrence != nil {
				recurrenceHandler := NewRecurrenceHandler(deps.Recurrence, log)
				r.With(apiMiddleware.RequireAdmin).Post("/admin/recurrence/run", recurrenceHandler.Run)
			}
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
