package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/velora/studioops/internal/domain"
)

// CleanupWorker removes a deleted tenant's object-storage namespace.
// Failures are logged and handed back to River for retry; they never
// reach the deletion caller, whose response was sent long before.
type CleanupWorker struct {
	river.WorkerDefaults[CleanupJobArgs]

	store domain.ObjectStore
}

// NewCleanupWorker creates a worker over the given object store.
func NewCleanupWorker(store domain.ObjectStore) *CleanupWorker {
	return &CleanupWorker{store: store}
}

// Work deletes every blob under the job's tenant prefix.
func (w *CleanupWorker) Work(ctx context.Context, job *river.Job[CleanupJobArgs]) error {
	if err := w.store.DeleteByPrefix(ctx, job.Args.Prefix); err != nil {
		slog.ErrorContext(ctx, "storage cleanup failed",
			"tenant_id", job.Args.TenantID,
			"prefix", job.Args.Prefix,
			"job_id", job.ID,
			"attempt", job.Attempt,
			"error", err,
		)
		return err
	}

	slog.InfoContext(ctx, "storage namespace reclaimed",
		"tenant_id", job.Args.TenantID,
		"tenant_slug", job.Args.Slug,
		"prefix", job.Args.Prefix,
		"job_id", job.ID,
	)
	return nil
}
