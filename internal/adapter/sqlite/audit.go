package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: AuditSink implements domain.AuditSink.
var _ domain.AuditSink = (*AuditSink)(nil)

// AuditSink appends audit records to the audit_records table. Records are
// never updated and carry no foreign keys, so they outlive the tenants and
// actors they describe.
type AuditSink struct {
	db *sql.DB
}

// NewAuditSink creates a sink over the given connection.
func NewAuditSink(db *sql.DB) *AuditSink {
	return &AuditSink{db: db}
}

func (s *AuditSink) Log(ctx context.Context, record domain.AuditRecord) error {
	var details any
	if record.Details != nil {
		raw, err := json.Marshal(record.Details)
		if err != nil {
			return fmt.Errorf("encoding audit details: %w", err)
		}
		details = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records (id, actor_id, action, tenant_id, target_id, details, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.ActorID, record.Action,
		nullableString(record.TenantID), nullableString(record.TargetID),
		details, nullableString(record.IP),
		record.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

func (s *AuditSink) ListByTenant(ctx context.Context, tenantID string) ([]domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, action, tenant_id, target_id, details, ip_address, created_at
		 FROM audit_records WHERE tenant_id = ? ORDER BY created_at`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		r, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func scanAuditRecord(rows *sql.Rows) (domain.AuditRecord, error) {
	var r domain.AuditRecord
	var tenantID, targetID, details, ip sql.NullString
	var createdAt string

	if err := rows.Scan(&r.ID, &r.ActorID, &r.Action, &tenantID, &targetID, &details, &ip, &createdAt); err != nil {
		return domain.AuditRecord{}, fmt.Errorf("scanning audit record: %w", err)
	}

	r.TenantID = tenantID.String
	r.TargetID = targetID.String
	r.IP = ip.String
	if details.Valid {
		// Details were valid JSON on the way in; a decode failure here
		// means hand-edited rows, which we surface as-is.
		if err := json.Unmarshal([]byte(details.String), &r.Details); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("decoding audit details: %w", err)
		}
	}
	r.CreatedAt, _ = parseTime(createdAt)

	return r, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
