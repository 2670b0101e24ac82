package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/velora/studioops/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: TenantRepository implements domain.TenantRepository.
var _ domain.TenantRepository = (*TenantRepository)(nil)

// TenantRepository implements domain.TenantRepository using SQLite.
type TenantRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*TenantRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps the pragmas below effective everywhere
	// and makes ":memory:" behave as one database instead of one per
	// pooled connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite). The purge engine
	// depends on them being enforced: phase order is the contract.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready repository. Use this when the *sql.DB has been
// pre-configured (e.g. with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*TenantRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &TenantRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *TenantRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by the other
// store-backed adapters (purge engine, reclaimer, audit sink, river).
func (r *TenantRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func (r *TenantRepository) Create(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, slug, status, tier, student_access_disabled, archived_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Slug, string(t.Status), string(t.Tier),
		boolToInt(t.StudentAccessDisabled), nullableTime(t.ArchivedAt),
		t.CreatedAt.Format(timeFormat),
		t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

const tenantColumns = `id, name, slug, status, tier, student_access_disabled, archived_at, created_at, updated_at`

func (r *TenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id,
	))
}

func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug,
	))
}

func (r *TenantRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenantRow(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

func (r *TenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants
		 SET name = ?, status = ?, tier = ?, student_access_disabled = ?, archived_at = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, string(t.Status), string(t.Tier),
		boolToInt(t.StudentAccessDisabled), nullableTime(t.ArchivedAt),
		time.Now().UTC().Format(timeFormat), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}

	return nil
}

// Quotas returns the tenant's quota settings as a key/value map.
func (r *TenantRepository) Quotas(ctx context.Context, tenantID string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM tenant_quotas WHERE tenant_id = ?`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading quotas: %w", err)
	}
	defer rows.Close()

	quotas := make(map[string]int64)
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning quota row: %w", err)
		}
		quotas[key] = value
	}

	return quotas, rows.Err()
}

// PatchQuotas upserts the given keys in a single transaction and returns
// the full settings map. Key validation happens in the service; by the
// time a patch reaches the store it is applied whole.
func (r *TenantRepository) PatchQuotas(ctx context.Context, tenantID string, patch map[string]int64) (map[string]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning quota patch: %w", err)
	}
	defer tx.Rollback()

	for key, value := range patch {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tenant_quotas (tenant_id, key, value) VALUES (?, ?, ?)
			 ON CONFLICT (tenant_id, key) DO UPDATE SET value = excluded.value`,
			tenantID, key, value,
		); err != nil {
			return nil, fmt.Errorf("upserting quota %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing quota patch: %w", err)
	}

	return r.Quotas(ctx, tenantID)
}

func scanTenant(row *sql.Row) (domain.Tenant, error) {
	t, err := scanTenantFields(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}
	return t, nil
}

func scanTenantRow(rows *sql.Rows) (domain.Tenant, error) {
	t, err := scanTenantFields(rows.Scan)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("scanning tenant row: %w", err)
	}
	return t, nil
}

func scanTenantFields(scan func(...any) error) (domain.Tenant, error) {
	var t domain.Tenant
	var status, tier, createdAt, updatedAt string
	var accessDisabled int
	var archivedAt sql.NullString

	err := scan(&t.ID, &t.Name, &t.Slug, &status, &tier, &accessDisabled, &archivedAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Tenant{}, err
	}

	t.Status = domain.Status(status)
	t.Tier = domain.Tier(tier)
	t.StudentAccessDisabled = accessDisabled != 0
	if archivedAt.Valid {
		at, _ := time.Parse(timeFormat, archivedAt.String)
		t.ArchivedAt = &at
	}
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(timeFormat)
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
