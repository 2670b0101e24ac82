package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: Exporter implements domain.TenantExporter.
var _ domain.TenantExporter = (*Exporter)(nil)

// Exporter assembles a read-only snapshot of a tenant's core records. It
// shares the repository's connection but never writes.
type Exporter struct {
	repo *TenantRepository
}

// NewExporter creates an exporter over the given repository.
func NewExporter(repo *TenantRepository) *Exporter {
	return &Exporter{repo: repo}
}

// exportCounted lists the dependent tables summarized by row count in an
// export. Kept to directly tenant-scoped tables; join-scoped children are
// implied by their parents.
var exportCounted = []string{
	"classes", "bookings", "products", "purchase_orders",
	"invoices", "campaigns", "posts", "memberships",
}

func (e *Exporter) Export(ctx context.Context, tenantID string) (domain.ExportSnapshot, error) {
	tenant, err := e.repo.GetByID(ctx, tenantID)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	quotas, err := e.repo.Quotas(ctx, tenantID)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	members, err := e.members(ctx, tenantID)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	classes, err := e.classes(ctx, tenantID)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	counts, err := e.counts(ctx, tenantID)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	return domain.ExportSnapshot{
		Tenant:  tenant,
		Quotas:  quotas,
		Members: members,
		Classes: classes,
		Counts:  counts,
	}, nil
}

func (e *Exporter) members(ctx context.Context, tenantID string) ([]domain.ExportMember, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, m.role
		 FROM memberships m JOIN users u ON u.id = m.user_id
		 WHERE m.tenant_id = ? ORDER BY u.email`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("exporting members: %w", err)
	}
	defer rows.Close()

	var members []domain.ExportMember
	for rows.Next() {
		var m domain.ExportMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.Role); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (e *Exporter) classes(ctx context.Context, tenantID string) ([]domain.ExportClass, error) {
	rows, err := e.repo.db.QueryContext(ctx,
		`SELECT c.id, c.name, COUNT(b.id)
		 FROM classes c LEFT JOIN bookings b ON b.class_id = c.id
		 WHERE c.tenant_id = ? GROUP BY c.id, c.name ORDER BY c.name`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("exporting classes: %w", err)
	}
	defer rows.Close()

	var classes []domain.ExportClass
	for rows.Next() {
		var c domain.ExportClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Bookings); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (e *Exporter) counts(ctx context.Context, tenantID string) (map[string]int64, error) {
	counts := make(map[string]int64, len(exportCounted))
	for _, table := range exportCounted {
		query := `SELECT COUNT(*) FROM ` + table + ` WHERE tenant_id = ?`
		if table == "bookings" {
			query = `SELECT COUNT(*) FROM bookings WHERE class_id IN (SELECT id FROM classes WHERE tenant_id = ?)`
		}
		var n int64
		if err := e.repo.db.QueryRowContext(ctx, query, tenantID).Scan(&n); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
