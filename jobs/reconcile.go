package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/pdfs"
)

const defaultFallbackUploader = "superadmin1"

// reconcileConcurrency bounds parallel database lookups per run.
const reconcileConcurrency = 4

// ReconcileRepo is the slice of the PDF repository the reconcile job needs.
type ReconcileRepo interface {
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	Insert(ctx context.Context, title, filename string, uploadedBy int64) (pdfs.PDF, error)
}

// ReconcileJob registers files present in blob storage but missing from the
// database. Uploads write the blob before the row, so a crash between the two
// leaves orphans behind; this job adopts them under a fallback account.
type ReconcileJob struct {
	Store  pdfs.BlobStore
	Repo   ReconcileRepo
	Users  auth.Repository
	Logger *slog.Logger
}

// NewReconcileJob initialises the reconcile handler.
func NewReconcileJob(store pdfs.BlobStore, repo ReconcileRepo, users auth.Repository, logger *slog.Logger) *ReconcileJob {
	return &ReconcileJob{Store: store, Repo: repo, Users: users, Logger: logger}
}

// titleFromKey derives a display title from a stored blob name. Stored names
// carry a "<uuid>_" prefix in front of the original filename; drop it along
// with the extension.
func titleFromKey(name string) string {
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Handle executes one reconcile pass. Safe to run repeatedly.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.FallbackUploader == "" {
		payload.FallbackUploader = defaultFallbackUploader
	}

	owner, err := j.Users.FindByUsername(ctx, payload.FallbackUploader)
	if err != nil {
		return err
	}

	names, err := j.Store.List()
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		adopted int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, name := range names {
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		name := name
		g.Go(func() error {
			tracked, err := j.Repo.ExistsByFilename(gctx, name)
			if err != nil || tracked {
				return err
			}
			if _, err := j.Repo.Insert(gctx, titleFromKey(name), name, owner.ID); err != nil {
				return err
			}
			mu.Lock()
			adopted++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("pdf reconcile complete",
			slog.Int("scanned", len(names)), slog.Int("adopted", adopted))
	}
	return nil
}
