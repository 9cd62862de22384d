package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/recurrence"
	"github.com/phrazzld/taskpulse-api/internal/service"
)

// RecurrenceHandler lets administrators trigger a recurrence run.
type RecurrenceHandler struct {
	runner recurrence.Runner
	logger *slog.Logger
	now    func() time.Time
}

// NewRecurrenceHandler creates a new RecurrenceHandler
func NewRecurrenceHandler(runner recurrence.Runner, logger *slog.Logger) *RecurrenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecurrenceHandler{
		runner: runner,
		logger: logger.With(slog.String("component", "recurrence_handler")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run handles POST /admin/recurrence/run. It answers 409 when another run
// is in progress.
func (h *RecurrenceHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if _, ok := requireUserID(w, r, log); !ok {
		return
	}
	if role, ok := shared.Role(r.Context()); !ok || !role.IsAdmin() {
		HandleAPIError(w, r, service.ErrForbidden, "")
		return
	}

	// A client disconnect must not abort the run halfway
	result, err := h.runner.Run(context.WithoutCancel(r.Context()), h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Recurrence run failed")
		return
	}

	log.Info("manual recurrence run finished",
		slog.Int("generated", len(result.Generated)),
		slog.Int("skipped", len(result.Skipped)))
	shared.RespondWithJSON(w, r, http.StatusOK, runResultToResponse(result))
}
