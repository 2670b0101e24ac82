package domain

import "context"

// TenantRepository defines the persistence contract for tenants and their
// quota settings. The final row delete during a purge is owned by the
// TenantPurger, not this interface.
type TenantRepository interface {
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
	Update(ctx context.Context, tenant Tenant) error
	Quotas(ctx context.Context, tenantID string) (map[string]int64, error)
	PatchQuotas(ctx context.Context, tenantID string, patch map[string]int64) (map[string]int64, error)
}

// ListFilter holds optional criteria for listing tenants.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// TransitionValidator checks whether a lifecycle event is valid from the
// current status and resolves the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// TenantPurger walks the entity graph catalog and removes every dependent
// record of a tenant, then the tenant row itself. Phase failures are
// captured in the report; only a failed tenant-row delete returns an error.
type TenantPurger interface {
	Purge(ctx context.Context, tenant Tenant) (PurgeReport, error)
}

// UserReclaimer removes global users left with no membership in any tenant
// and no platform-administrator privilege. Must only run after the purged
// tenant's own memberships are gone.
type UserReclaimer interface {
	Reclaim(ctx context.Context, userIDs []string) ReclaimReport
}

// CleanupScheduler enqueues the detached object-storage cleanup for a
// deleted tenant. The job runs after the caller's response is sent.
type CleanupScheduler interface {
	Schedule(ctx context.Context, tenant Tenant) error
}

// ObjectStore is the external blob service. DeleteByPrefix removes every
// object under a tenant-scoped key prefix.
type ObjectStore interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// TenantExporter produces a read-only snapshot of a tenant's core records.
type TenantExporter interface {
	Export(ctx context.Context, tenantID string) (ExportSnapshot, error)
}
