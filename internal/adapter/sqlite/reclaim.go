package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: Reclaimer implements domain.UserReclaimer.
var _ domain.UserReclaimer = (*Reclaimer)(nil)

// DefaultChunkSize bounds IN (...) predicate cardinality. It is a storage
// engine limitation, not a domain constant, so it stays injectable.
const DefaultChunkSize = 50

// Reclaimer deletes global users that no tenant references anymore and
// that hold no platform privilege. It must run only after the purged
// tenant's own memberships are gone, otherwise self-references would
// falsely protect every user.
type Reclaimer struct {
	db        *sql.DB
	chunkSize int
	log       *slog.Logger
}

// NewReclaimer creates a reclaimer. A non-positive chunkSize falls back to
// DefaultChunkSize.
func NewReclaimer(db *sql.DB, chunkSize int, log *slog.Logger) *Reclaimer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reclaimer{db: db, chunkSize: chunkSize, log: log}
}

// Reclaim examines the given user IDs chunk by chunk and deletes the ones
// with no remaining membership anywhere and no administrator privilege.
// The checks run per chunk, never once for the whole set, so arbitrarily
// large tenants stay within the engine's IN-clause limit. Chunk failures
// are logged and skipped; reclamation is best-effort like the purge.
func (r *Reclaimer) Reclaim(ctx context.Context, userIDs []string) domain.ReclaimReport {
	report := domain.ReclaimReport{Scanned: len(userIDs)}

	for chunk := range chunks(userIDs, r.chunkSize) {
		eligible, err := r.eligibleIn(ctx, chunk)
		if err != nil {
			report.Failed++
			r.log.WarnContext(ctx, "orphan eligibility check failed",
				"chunk_size", len(chunk), "error", err)
			continue
		}
		report.Retained += len(chunk) - len(eligible)

		if len(eligible) == 0 {
			continue
		}

		if err := r.deleteUsers(ctx, eligible); err != nil {
			report.Failed++
			r.log.WarnContext(ctx, "orphan delete failed",
				"chunk_size", len(eligible), "error", err)
			continue
		}
		report.Deleted += len(eligible)
	}

	return report
}

// eligibleIn returns the subset of ids with neither a remaining membership
// in any tenant nor administrator privilege. The two protections are
// computed by separate queries: membership is a cross-tenant existence
// check, privilege is a flag on the user row.
func (r *Reclaimer) eligibleIn(ctx context.Context, ids []string) ([]string, error) {
	withMembership, err := r.idSet(ctx,
		`SELECT DISTINCT user_id FROM memberships WHERE user_id IN (`+placeholders(len(ids))+`)`, ids)
	if err != nil {
		return nil, fmt.Errorf("checking memberships: %w", err)
	}

	admins, err := r.idSet(ctx,
		`SELECT id FROM users WHERE id IN (`+placeholders(len(ids))+`)
		 AND (is_platform_admin = 1 OR role = ?)`,
		append(append([]string{}, ids...), domain.RolePlatformAdmin))
	if err != nil {
		return nil, fmt.Errorf("checking admin privilege: %w", err)
	}

	var eligible []string
	for _, id := range ids {
		if _, ok := withMembership[id]; ok {
			continue
		}
		if _, ok := admins[id]; ok {
			continue
		}
		eligible = append(eligible, id)
	}
	return eligible, nil
}

// deleteUsers removes relationship rows referencing the ids from either
// side, then the user rows themselves.
func (r *Reclaimer) deleteUsers(ctx context.Context, ids []string) error {
	ph := placeholders(len(ids))

	doubled := make([]string, 0, len(ids)*2)
	doubled = append(doubled, ids...)
	doubled = append(doubled, ids...)
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE parent_user_id IN (`+ph+`) OR child_user_id IN (`+ph+`)`,
		toAny(doubled)...,
	); err != nil {
		return fmt.Errorf("deleting relationships: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id IN (`+ph+`)`, toAny(ids)...,
	); err != nil {
		return fmt.Errorf("deleting users: %w", err)
	}

	return nil
}

func (r *Reclaimer) idSet(ctx context.Context, query string, args []string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, query, toAny(args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// chunks yields fixed-size slices of ids.
func chunks(ids []string, size int) func(func([]string) bool) {
	return func(yield func([]string) bool) {
		for start := 0; start < len(ids); start += size {
			end := start + size
			if end > len(ids) {
				end = len(ids)
			}
			if !yield(ids[start:end]) {
				return
			}
		}
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
