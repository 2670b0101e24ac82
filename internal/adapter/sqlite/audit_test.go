package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/velora/studioops/internal/adapter/sqlite"
	"github.com/velora/studioops/internal/domain"
)

func TestAuditSink_LogAndList(t *testing.T) {
	repo := newTestRepo(t)
	sink := sqlite.NewAuditSink(repo.DB())
	ctx := context.Background()

	record := domain.AuditRecord{
		ID:       "a-1",
		ActorID:  "op-1",
		Action:   domain.ActionDeleteTenant,
		TenantID: "t-1",
		TargetID: "t-1",
		Details:  map[string]any{"name": "Acme", "slug": "acme"},
		IP:       "10.0.0.1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := sink.Log(ctx, record); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	records, err := sink.ListByTenant(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListByTenant failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	got := records[0]
	if got.Action != domain.ActionDeleteTenant {
		t.Errorf("Action = %q, want delete_tenant", got.Action)
	}
	if got.TargetID != "t-1" {
		t.Errorf("TargetID = %q, want t-1", got.TargetID)
	}
	if got.Details["slug"] != "acme" {
		t.Errorf("Details = %v, want slug acme", got.Details)
	}
	if got.IP != "10.0.0.1" {
		t.Errorf("IP = %q", got.IP)
	}
}

func TestAuditSink_SurvivesTenantDeletion(t *testing.T) {
	repo := newTestRepo(t)
	sink := sqlite.NewAuditSink(repo.DB())
	ctx := context.Background()

	tenant := domain.NewTenant("t-1", "Acme", "acme", domain.TierLaunch)
	mustCreate(t, repo, tenant)

	record := domain.AuditRecord{
		ID: "a-1", ActorID: "op-1", Action: domain.ActionDeleteTenant,
		TenantID: tenant.ID, TargetID: tenant.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := sink.Log(ctx, record); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	purger := sqlite.NewPurger(repo.DB(), nil)
	if _, err := purger.Purge(ctx, tenant); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}

	records, err := sink.ListByTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("ListByTenant failed: %v", err)
	}
	if len(records) != 1 {
		t.Error("audit evidence must survive the tenant it describes")
	}
}

func TestAuditSink_NilDetails(t *testing.T) {
	repo := newTestRepo(t)
	sink := sqlite.NewAuditSink(repo.DB())
	ctx := context.Background()

	record := domain.AuditRecord{
		ID: "a-1", ActorID: "op-1", Action: domain.ActionArchiveTenant,
		TenantID: "t-1", TargetID: "t-1",
		CreatedAt: time.Now().UTC(),
	}
	if err := sink.Log(ctx, record); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	records, err := sink.ListByTenant(ctx, "t-1")
	if err != nil {
		t.Fatalf("ListByTenant failed: %v", err)
	}
	if records[0].Details != nil {
		t.Errorf("Details = %v, want nil", records[0].Details)
	}
}
