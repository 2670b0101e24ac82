package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/velora/studioops/internal/domain"
)

// Service orchestrates tenant lifecycle operations: provisioning, status
// and tier transitions, quota patches, export, and the cascading delete.
type Service struct {
	repo      domain.TenantRepository
	validator domain.TransitionValidator
	purger    domain.TenantPurger
	reclaimer domain.UserReclaimer
	cleanup   domain.CleanupScheduler
	exporter  domain.TenantExporter
	sink      domain.AuditSink
	log       *slog.Logger
}

// NewService creates a service with the given adapters.
func NewService(
	repo domain.TenantRepository,
	validator domain.TransitionValidator,
	purger domain.TenantPurger,
	reclaimer domain.UserReclaimer,
	cleanup domain.CleanupScheduler,
	exporter domain.TenantExporter,
	sink domain.AuditSink,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: validator,
		purger:    purger,
		reclaimer: reclaimer,
		cleanup:   cleanup,
		exporter:  exporter,
		sink:      sink,
		log:       log,
	}
}

// requireOperator rejects callers without platform-operator privilege
// before any read or write happens.
func requireOperator(ctx context.Context) error {
	if !ActorFrom(ctx).IsPlatformOperator() {
		return domain.ErrNotOperator
	}
	return nil
}

// Create provisions a new active tenant.
func (s *Service) Create(ctx context.Context, name, slug string, tier domain.Tier) (domain.Tenant, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.Tenant{}, err
	}

	if tier == "" {
		tier = domain.TierLaunch
	}
	if !tier.Valid() {
		return domain.Tenant{}, &domain.TierError{Tier: tier}
	}

	// Check slug uniqueness before creating.
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return domain.Tenant{}, &domain.SlugConflictError{Slug: slug}
	}

	id, err := newID()
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("generating tenant id: %w", err)
	}

	tenant := domain.NewTenant(id, name, slug, tier)

	if err := s.repo.Create(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}

	s.audit(ctx, domain.ActionCreateTenant, tenant.ID, tenant.ID, map[string]any{
		"name": name, "slug": slug, "tier": string(tier),
	})

	return tenant, nil
}

// GetByID returns a tenant by its unique identifier.
func (s *Service) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns tenants matching the given filter.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.repo.List(ctx, filter)
}

// SetStatus moves a tenant to the target status. Setting "archived"
// behaves exactly like Archive; restoring to "active" from "archived"
// clears the archival side effects.
func (s *Service) SetStatus(ctx context.Context, id string, target domain.Status) (domain.Tenant, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.Tenant{}, err
	}
	if !target.Valid() {
		return domain.Tenant{}, &domain.StatusError{Status: target}
	}
	tenant, err := s.transition(ctx, id, target)
	if err != nil {
		return domain.Tenant{}, err
	}
	s.audit(ctx, domain.ActionSetStatus, tenant.ID, tenant.ID, map[string]any{
		"status": string(target),
	})
	return tenant, nil
}

// Archive moves a tenant to "archived", disabling student access and
// stamping the archival time.
func (s *Service) Archive(ctx context.Context, id string) (domain.Tenant, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.Tenant{}, err
	}
	tenant, err := s.transition(ctx, id, domain.StatusArchived)
	if err != nil {
		return domain.Tenant{}, err
	}
	s.audit(ctx, domain.ActionArchiveTenant, tenant.ID, tenant.ID, nil)
	return tenant, nil
}

// Restore returns an archived tenant to "active" and clears the archival
// side effects.
func (s *Service) Restore(ctx context.Context, id string) (domain.Tenant, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.Tenant{}, err
	}
	tenant, err := s.transition(ctx, id, domain.StatusActive)
	if err != nil {
		return domain.Tenant{}, err
	}
	s.audit(ctx, domain.ActionRestoreTenant, tenant.ID, tenant.ID, nil)
	return tenant, nil
}

// transition validates and persists a status change, applying archive and
// restore side effects. A same-status request is a no-op.
func (s *Service) transition(ctx context.Context, id string, target domain.Status) (domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	event, ok := domain.TransitionEvent(tenant.Status, target)
	if !ok {
		return tenant, nil
	}

	newStatus, err := s.validator.Apply(ctx, tenant.Status, event)
	if err != nil {
		return domain.Tenant{}, err
	}

	tenant.Status = newStatus
	switch event {
	case domain.EventArchive:
		now := time.Now().UTC()
		tenant.StudentAccessDisabled = true
		tenant.ArchivedAt = &now
	case domain.EventRestore:
		tenant.StudentAccessDisabled = false
		tenant.ArchivedAt = nil
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("updating tenant: %w", err)
	}

	return tenant, nil
}

// SetTier changes a tenant's subscription tier, independent of status.
func (s *Service) SetTier(ctx context.Context, id string, tier domain.Tier) (domain.Tenant, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.Tenant{}, err
	}
	if !tier.Valid() {
		return domain.Tenant{}, &domain.TierError{Tier: tier}
	}

	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	tenant.Tier = tier
	if err := s.repo.Update(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("updating tenant: %w", err)
	}

	s.audit(ctx, domain.ActionSetTier, tenant.ID, tenant.ID, map[string]any{
		"tier": string(tier),
	})

	return tenant, nil
}

// PatchQuotas applies a quota patch after validating every key against the
// allow-list. One unknown key rejects the whole patch; nothing is applied.
func (s *Service) PatchQuotas(ctx context.Context, id string, patch map[string]int64) (map[string]int64, error) {
	if err := requireOperator(ctx); err != nil {
		return nil, err
	}
	if err := domain.ValidateQuotaPatch(patch); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	settings, err := s.repo.PatchQuotas(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("patching quotas: %w", err)
	}

	s.audit(ctx, domain.ActionPatchQuotas, id, id, map[string]any{
		"keys": quotaKeys(patch),
	})

	return settings, nil
}

func quotaKeys(patch map[string]int64) []string {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	return keys
}

// Export produces a read-only snapshot of the tenant and its core records.
func (s *Service) Export(ctx context.Context, id string) (domain.ExportSnapshot, error) {
	if err := requireOperator(ctx); err != nil {
		return domain.ExportSnapshot{}, err
	}

	snapshot, err := s.exporter.Export(ctx, id)
	if err != nil {
		return domain.ExportSnapshot{}, err
	}

	s.audit(ctx, domain.ActionExportTenant, id, id, nil)
	return snapshot, nil
}

// Delete irreversibly removes a tenant and everything it owns. Dependent
// phases are best-effort; only a failed tenant-row delete fails the call.
// Orphaned global users are reclaimed afterwards, and the object-storage
// namespace cleanup is handed to the detached job queue.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := requireOperator(ctx); err != nil {
		return err
	}

	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	report, err := s.purger.Purge(ctx, tenant)
	for _, failed := range report.Failed() {
		s.log.WarnContext(ctx, "purge phase failed",
			"tenant_id", tenant.ID,
			"phase", failed.Phase,
			"entity", failed.Entity,
			"error", failed.Err,
		)
	}
	if err != nil {
		return &domain.PartialDeletionError{TenantID: tenant.ID, Err: err}
	}

	reclaim := s.reclaimer.Reclaim(ctx, report.MemberUserIDs)
	s.log.InfoContext(ctx, "orphan reclamation finished",
		"tenant_id", tenant.ID,
		"scanned", reclaim.Scanned,
		"retained", reclaim.Retained,
		"deleted", reclaim.Deleted,
		"failed", reclaim.Failed,
	)

	// Detached cleanup: a scheduling failure only costs storage reclamation,
	// never the deletion itself.
	if err := s.cleanup.Schedule(ctx, tenant); err != nil {
		s.log.ErrorContext(ctx, "scheduling storage cleanup failed",
			"tenant_id", tenant.ID,
			"prefix", tenant.StoragePrefix(),
			"error", err,
		)
	}

	s.audit(ctx, domain.ActionDeleteTenant, tenant.ID, tenant.ID, map[string]any{
		"name": tenant.Name,
		"slug": tenant.Slug,
	})

	return nil
}
