package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora/studioops/internal/domain"
)

// audit writes a record to the sink, filling in actor, ID, and timestamp.
// Sink failures are logged and swallowed: audit is explicitly off the
// critical path, and a mutation that already persisted must report success.
func (s *Service) audit(ctx context.Context, action, tenantID, targetID string, details map[string]any) {
	actor := ActorFrom(ctx)
	record := domain.AuditRecord{
		ID:        uuid.NewString(),
		ActorID:   actor.ID,
		Action:    action,
		TenantID:  tenantID,
		TargetID:  targetID,
		Details:   details,
		IP:        actor.IP,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.sink.Log(ctx, record); err != nil {
		s.log.ErrorContext(ctx, "audit write failed",
			"action", action,
			"tenant_id", tenantID,
			"actor_id", actor.ID,
			"error", err,
		)
	}
}
