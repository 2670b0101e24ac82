package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/velora/studioops/internal/domain"
)

// TracingPurger wraps a domain.TenantPurger with OpenTelemetry tracing.
// The span records how many catalog phases ran and how many failed.
type TracingPurger struct {
	next   domain.TenantPurger
	tracer trace.Tracer
}

var _ domain.TenantPurger = (*TracingPurger)(nil)

// NewTracingPurger creates a tracing decorator around the given purger.
func NewTracingPurger(next domain.TenantPurger) *TracingPurger {
	return &TracingPurger{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPurger) Purge(ctx context.Context, tenant domain.Tenant) (domain.PurgeReport, error) {
	ctx, span := p.tracer.Start(ctx, "TenantPurger.Purge",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.slug", tenant.Slug),
		),
	)
	defer span.End()

	report, err := p.next.Purge(ctx, tenant)
	span.SetAttributes(
		attribute.Int("purge.steps", len(report.Results)),
		attribute.Int("purge.failed", len(report.Failed())),
		attribute.Int("purge.member_users", len(report.MemberUserIDs)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return report, err
}

// TracingScheduler wraps a domain.CleanupScheduler with OpenTelemetry
// tracing so enqueue failures show up in traces even though callers
// deliberately ignore them.
type TracingScheduler struct {
	next   domain.CleanupScheduler
	tracer trace.Tracer
}

var _ domain.CleanupScheduler = (*TracingScheduler)(nil)

// NewTracingScheduler creates a tracing decorator around the given scheduler.
func NewTracingScheduler(next domain.CleanupScheduler) *TracingScheduler {
	return &TracingScheduler{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingScheduler) Schedule(ctx context.Context, tenant domain.Tenant) error {
	ctx, span := s.tracer.Start(ctx, "CleanupScheduler.Schedule",
		trace.WithAttributes(
			attribute.String("tenant.id", tenant.ID),
			attribute.String("tenant.slug", tenant.Slug),
			attribute.String("storage.prefix", tenant.StoragePrefix()),
		),
	)
	defer span.End()

	err := s.next.Schedule(ctx, tenant)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
