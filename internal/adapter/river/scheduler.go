package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: Scheduler implements domain.CleanupScheduler.
var _ domain.CleanupScheduler = (*Scheduler)(nil)

// CleanupJobArgs carries the object-storage cleanup for a deleted tenant.
// River serializes this as JSON into its job queue table. The prefix is a
// snapshot taken while the tenant row still existed, so the worker never
// needs to query a record that is already gone.
type CleanupJobArgs struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Prefix   string `json:"prefix"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (CleanupJobArgs) Kind() string { return "storage.cleanup" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Scheduler implements domain.CleanupScheduler by enqueuing River jobs.
// The job runs detached from the deletion request: by the time it
// executes, the caller already has its response.
type Scheduler struct {
	client *Client
}

// NewScheduler creates a scheduler backed by the given River client.
func NewScheduler(client *Client) *Scheduler {
	return &Scheduler{client: client}
}

// Schedule enqueues the tenant's storage-namespace cleanup exactly once.
func (s *Scheduler) Schedule(ctx context.Context, tenant domain.Tenant) error {
	_, err := s.client.Insert(ctx, CleanupJobArgs{
		TenantID: tenant.ID,
		Name:     tenant.Name,
		Slug:     tenant.Slug,
		Prefix:   tenant.StoragePrefix(),
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing cleanup job: %w", err)
	}
	return nil
}
