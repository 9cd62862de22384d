package main

import (
	"net/http"

	"github.com/phrazzld/taskpulse-api/internal/api"
)

// setupRouter creates the application router from the application's services.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterDeps{
		UserService:      app.userService,
		TaskService:      app.taskService,
		DashboardService: app.dashboardService,
		JWTService:       app.jwtService,
		Recurrence:       app.engine,
		Logger:           app.logger,
	})
}
