package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubEnqueuer struct {
	calls int
	err   error
}

func (s *stubEnqueuer) EnqueueReconcile(ctx context.Context, payload ReconcilePayload) (*asynq.TaskInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault, Type: TaskPDFReconcile}, nil
}

func newJobsRouter(enqueuer Enqueuer) chi.Router {
	h := NewHandler(enqueuer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestReconcileEndpoint(t *testing.T) {
	enq := &stubEnqueuer{}
	r := newJobsRouter(enq)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pdf/reconcile", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, enq.calls)
	require.Contains(t, rec.Body.String(), "task-1")
}

func TestReconcileEndpointQueueDown(t *testing.T) {
	enq := &stubEnqueuer{err: errors.New("queue unavailable")}
	r := newJobsRouter(enq)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pdf/reconcile", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
