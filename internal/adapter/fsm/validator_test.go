package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/velora/studioops/internal/adapter/fsm"
	"github.com/velora/studioops/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_RestoreOnlyFromArchived(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	_, err := v.Apply(ctx, domain.StatusActive, domain.EventRestore)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventRestore {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventRestore)
	}
	if trErr.Current != domain.StatusActive {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusActive)
	}
}

func TestValidator_ArchiveNotFromArchived(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	_, err := v.Apply(ctx, domain.StatusArchived, domain.EventArchive)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestValidator_OperatorRoundTrip(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusActive, domain.EventPause, domain.StatusPaused},
		{domain.StatusPaused, domain.EventSuspend, domain.StatusSuspended},
		{domain.StatusSuspended, domain.EventActivate, domain.StatusActive},
		{domain.StatusActive, domain.EventArchive, domain.StatusArchived},
		{domain.StatusArchived, domain.EventRestore, domain.StatusActive},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}
