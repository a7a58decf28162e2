package jobs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/docvault/docvault/internal/platform/httpx"
)

// Enqueuer submits reconcile runs; satisfied by Client.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, payload ReconcilePayload) (*asynq.TaskInfo, error)
}

// Handler exposes HTTP endpoints for triggering background jobs on demand,
// ahead of the nightly cron.
type Handler struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pdf/reconcile", h.reconcile)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	info, err := h.enqueuer.EnqueueReconcile(r.Context(), ReconcilePayload{})
	if err != nil {
		h.logger.Error("enqueue reconcile", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "could not enqueue job")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"message": "Reconcile enqueued",
		"task_id": info.ID,
	})
}
