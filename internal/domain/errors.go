package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrNotOperator    = errors.New("caller is not a platform operator")
)

// SlugConflictError is returned when a tenant slug is already in use.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// TransitionError is returned when a status transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// TierError is returned when a tier value is outside the closed enum.
type TierError struct {
	Tier Tier
}

func (e *TierError) Error() string {
	return fmt.Sprintf("tier %q is not one of launch, growth, scale", e.Tier)
}

// StatusError is returned when a status value is outside the closed enum.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %q is not one of active, paused, suspended, archived", e.Status)
}

// QuotaKeyError rejects a quota patch carrying a key outside the
// allow-list. The whole patch is discarded, not just the offending key.
type QuotaKeyError struct {
	Key string
}

func (e *QuotaKeyError) Error() string {
	return fmt.Sprintf("quota key %q is not allowed", e.Key)
}

// PartialDeletionError is returned when the final tenant-row delete fails
// after dependent phases already ran. The tenant is in a partially-deleted
// state that needs operator attention, so the underlying cause is kept.
type PartialDeletionError struct {
	TenantID string
	Err      error
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("tenant %s partially deleted: %v", e.TenantID, e.Err)
}

func (e *PartialDeletionError) Unwrap() error {
	return e.Err
}
