package domain

import (
	"context"
	"time"
)

// Audit actions recorded by the lifecycle subsystem.
const (
	ActionCreateTenant  = "create_tenant"
	ActionSetStatus     = "set_status"
	ActionSetTier       = "set_tier"
	ActionPatchQuotas   = "patch_quotas"
	ActionArchiveTenant = "archive_tenant"
	ActionRestoreTenant = "restore_tenant"
	ActionDeleteTenant  = "delete_tenant"
	ActionExportTenant  = "export_tenant"
)

// AuditRecord is an immutable log entry for an administrative action. It is
// written after the primary mutation persists and retained regardless of
// the action's outcome.
type AuditRecord struct {
	ID        string
	ActorID   string
	Action    string
	TenantID  string
	TargetID  string
	Details   map[string]any
	IP        string
	CreatedAt time.Time
}

// AuditSink appends audit records. Implementations must treat writes as
// best-effort: a sink failure is reported through the returned error but
// callers swallow it, so the sink must never panic.
type AuditSink interface {
	Log(ctx context.Context, record AuditRecord) error
	ListByTenant(ctx context.Context, tenantID string) ([]AuditRecord, error)
}
