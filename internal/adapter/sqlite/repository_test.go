package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/velora/studioops/internal/adapter/sqlite"
	"github.com/velora/studioops/internal/domain"
)

// newTestRepo creates an in-memory SQLite repository for testing.
func newTestRepo(t *testing.T) *sqlite.TenantRepository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreate(t *testing.T, repo *sqlite.TenantRepository, tenant domain.Tenant) {
	t.Helper()
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("mustCreate failed: %v", err)
	}
}

// mustExec seeds arbitrary rows through the repository's connection.
func mustExec(t *testing.T, repo *sqlite.TenantRepository, query string, args ...any) {
	t.Helper()
	if _, err := repo.DB().ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("seeding %q failed: %v", query, err)
	}
}

// countRows returns the row count for an arbitrary predicate.
func countRows(t *testing.T, repo *sqlite.TenantRepository, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := repo.DB().QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("counting %q failed: %v", query, err)
	}
	return n
}

func TestCreate_And_GetByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tenant := domain.NewTenant("t-1", "Acme Yoga", "acme-yoga", domain.TierGrowth)

	if err := repo.Create(ctx, tenant); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Name != "Acme Yoga" {
		t.Errorf("Name = %q, want %q", got.Name, "Acme Yoga")
	}
	if got.Slug != "acme-yoga" {
		t.Errorf("Slug = %q, want %q", got.Slug, "acme-yoga")
	}
	if got.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusActive)
	}
	if got.Tier != domain.TierGrowth {
		t.Errorf("Tier = %q, want %q", got.Tier, domain.TierGrowth)
	}
	if got.StudentAccessDisabled {
		t.Error("StudentAccessDisabled should default to false")
	}
	if got.ArchivedAt != nil {
		t.Error("ArchivedAt should default to nil")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	repo := newTestRepo(t)

	mustCreate(t, repo, domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch))

	got, err := repo.GetBySlug(context.Background(), "acme")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.ID != "t-1" {
		t.Errorf("ID = %q, want %q", got.ID, "t-1")
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	repo := newTestRepo(t)

	mustCreate(t, repo, domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch))
	err := repo.Create(context.Background(), domain.NewTenant("t-2", "Acme 2", "acme", domain.TierScale))

	var slugErr *domain.SlugConflictError
	if !errors.As(err, &slugErr) {
		t.Fatalf("expected SlugConflictError, got %v", err)
	}
	if slugErr.Slug != "acme" {
		t.Errorf("slug = %q, want %q", slugErr.Slug, "acme")
	}
}

func TestUpdate_PersistsArchivalFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tenant := domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch)
	mustCreate(t, repo, tenant)

	now := time.Now().UTC().Truncate(time.Second)
	tenant.Status = domain.StatusArchived
	tenant.StudentAccessDisabled = true
	tenant.ArchivedAt = &now

	if err := repo.Update(ctx, tenant); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusArchived {
		t.Errorf("Status = %q, want archived", got.Status)
	}
	if !got.StudentAccessDisabled {
		t.Error("StudentAccessDisabled should persist as true")
	}
	if got.ArchivedAt == nil || !got.ArchivedAt.Equal(now) {
		t.Errorf("ArchivedAt = %v, want %v", got.ArchivedAt, now)
	}

	// Restore clears both fields.
	tenant.Status = domain.StatusActive
	tenant.StudentAccessDisabled = false
	tenant.ArchivedAt = nil
	if err := repo.Update(ctx, tenant); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ = repo.GetByID(ctx, "t-1")
	if got.StudentAccessDisabled || got.ArchivedAt != nil {
		t.Error("restore must clear archival fields")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Update(context.Background(), domain.NewTenant("ghost", "Ghost", "ghost", domain.TierLaunch))
	if !errors.Is(err, domain.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestList_FilterByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreate(t, repo, domain.NewTenant(
			fmt.Sprintf("t-%d", i), fmt.Sprintf("Studio %d", i),
			fmt.Sprintf("studio-%d", i), domain.TierLaunch,
		))
	}

	paused, _ := repo.GetByID(ctx, "t-1")
	paused.Status = domain.StatusPaused
	if err := repo.Update(ctx, paused); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	status := domain.StatusPaused
	got, err := repo.List(ctx, domain.ListFilter{Status: &status})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Errorf("List = %+v, want only t-1", got)
	}
}

func TestPatchQuotas_UpsertAndRead(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, repo, domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch))

	settings, err := repo.PatchQuotas(ctx, "t-1", map[string]int64{"sms_limit": 100})
	if err != nil {
		t.Fatalf("PatchQuotas failed: %v", err)
	}
	if settings["sms_limit"] != 100 {
		t.Errorf("sms_limit = %d, want 100", settings["sms_limit"])
	}

	// Upsert overwrites, new keys merge.
	settings, err = repo.PatchQuotas(ctx, "t-1", map[string]int64{
		"sms_limit": 200,
		"max_staff": 10,
	})
	if err != nil {
		t.Fatalf("PatchQuotas failed: %v", err)
	}
	if settings["sms_limit"] != 200 || settings["max_staff"] != 10 {
		t.Errorf("settings = %v", settings)
	}

	quotas, err := repo.Quotas(ctx, "t-1")
	if err != nil {
		t.Fatalf("Quotas failed: %v", err)
	}
	if len(quotas) != 2 {
		t.Errorf("quotas = %v, want 2 keys", quotas)
	}
}
