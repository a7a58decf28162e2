package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPDFReconcile registers orphaned files in the upload directory.
	TaskPDFReconcile = "pdf:reconcile"
)

// ReconcilePayload configures a reconcile run.
type ReconcilePayload struct {
	// FallbackUploader owns any file found on disk without a database row.
	FallbackUploader string `json:"fallback_uploader"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPDFReconcile, data), nil
}
