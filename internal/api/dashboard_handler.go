package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/service"
)

// DashboardHandler serves the per-user analytics dashboard.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService service.DashboardService, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger.With(slog.String("component", "dashboard_handler")),
	}
}

// GetDashboard handles GET /dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	summary, err := h.dashboardService.GetDashboard(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute dashboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}

// formatRate renders a percentage with one decimal, e.g. "50.0%".
func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}
