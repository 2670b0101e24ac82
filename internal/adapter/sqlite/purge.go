package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: Purger implements domain.TenantPurger.
var _ domain.TenantPurger = (*Purger)(nil)

// Purger executes the entity graph catalog against a tenant. Each step is
// attempted independently: a failed statement is captured in the report
// and execution continues. A partially-undeletable tenant is preferable to
// an un-deletable one; only the final tenant-row delete can fail the call.
type Purger struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPurger creates a purge engine over the given connection.
func NewPurger(db *sql.DB, log *slog.Logger) *Purger {
	if log == nil {
		log = slog.Default()
	}
	return &Purger{db: db, log: log}
}

// Purge removes every dependent record of the tenant in catalog order,
// then the tenant row itself. The member user IDs are captured before the
// members phase runs; they are the input to orphan reclamation.
func (p *Purger) Purge(ctx context.Context, tenant domain.Tenant) (domain.PurgeReport, error) {
	report := domain.PurgeReport{TenantID: tenant.ID}

	// Capture member user IDs while the membership rows still exist.
	userIDs, err := p.memberUserIDs(ctx, tenant.ID)
	if err != nil {
		// Reclamation input lost, but the destructive intent stands.
		p.log.ErrorContext(ctx, "collecting member user ids failed",
			"tenant_id", tenant.ID, "error", err)
	}
	report.MemberUserIDs = userIDs

	for _, phase := range Catalog {
		for _, step := range phase.Steps {
			result := domain.PhaseResult{Phase: phase.Name, Entity: step.Entity}

			res, err := p.db.ExecContext(ctx, step.Query, tenant.ID)
			if err != nil {
				result.Err = err
				p.log.WarnContext(ctx, "purge step failed",
					"tenant_id", tenant.ID,
					"phase", phase.Name,
					"entity", step.Entity,
					"error", err,
				)
			} else if rows, raErr := res.RowsAffected(); raErr == nil {
				result.Rows = rows
			}

			report.Results = append(report.Results, result)
		}
	}

	// Final, unconditional step. Its failure is the operation's failure:
	// at this point the tenant is partially deleted and needs attention.
	res, err := p.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, tenant.ID)
	if err != nil {
		return report, fmt.Errorf("deleting tenant row: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		// Already gone; re-running a deletion is a no-op by design.
		p.log.InfoContext(ctx, "tenant row already absent", "tenant_id", tenant.ID)
	}

	return report, nil
}

// memberUserIDs returns the distinct global user IDs referenced by the
// tenant's memberships.
func (p *Purger) memberUserIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM memberships WHERE tenant_id = ?`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting member user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning member user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
