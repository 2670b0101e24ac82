package domain

import "time"

// Status represents the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a member of the closed status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusSuspended, StatusArchived:
		return true
	}
	return false
}

// Tier represents a tenant's subscription tier, orthogonal to Status.
type Tier string

const (
	TierLaunch Tier = "launch"
	TierGrowth Tier = "growth"
	TierScale  Tier = "scale"
)

// Valid reports whether t is a member of the closed tier enum.
func (t Tier) Valid() bool {
	switch t {
	case TierLaunch, TierGrowth, TierScale:
		return true
	}
	return false
}

// Event represents an operator action that triggers a status transition.
type Event string

const (
	EventActivate Event = "activate"
	EventPause    Event = "pause"
	EventSuspend  Event = "suspend"
	EventArchive  Event = "archive"
	EventRestore  Event = "restore"
)

// Transition defines a valid state change: an event moves a tenant from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid status changes. Operator transitions are
// unconditional between the four statuses; the only asymmetry is that
// leaving "archived" for "active" goes through restore, which also clears
// the archival side effects. This is domain knowledge consumed by the FSM
// adapter.
var Transitions = []Transition{
	{Event: EventActivate, Src: StatusPaused, Dst: StatusActive},
	{Event: EventActivate, Src: StatusSuspended, Dst: StatusActive},
	{Event: EventRestore, Src: StatusArchived, Dst: StatusActive},
	{Event: EventPause, Src: StatusActive, Dst: StatusPaused},
	{Event: EventPause, Src: StatusSuspended, Dst: StatusPaused},
	{Event: EventPause, Src: StatusArchived, Dst: StatusPaused},
	{Event: EventSuspend, Src: StatusActive, Dst: StatusSuspended},
	{Event: EventSuspend, Src: StatusPaused, Dst: StatusSuspended},
	{Event: EventSuspend, Src: StatusArchived, Dst: StatusSuspended},
	{Event: EventArchive, Src: StatusActive, Dst: StatusArchived},
	{Event: EventArchive, Src: StatusPaused, Dst: StatusArchived},
	{Event: EventArchive, Src: StatusSuspended, Dst: StatusArchived},
}

// TransitionEvent maps a desired target status to the event that reaches it
// from the current status. Returns false when current already equals target.
func TransitionEvent(current, target Status) (Event, bool) {
	if current == target {
		return "", false
	}
	switch target {
	case StatusActive:
		if current == StatusArchived {
			return EventRestore, true
		}
		return EventActivate, true
	case StatusPaused:
		return EventPause, true
	case StatusSuspended:
		return EventSuspend, true
	case StatusArchived:
		return EventArchive, true
	}
	return "", false
}

// Tenant is the root aggregate: a single studio and the owner of all its
// scoped records. Slug is immutable after creation; object storage paths
// key off it.
type Tenant struct {
	ID                    string
	Name                  string
	Slug                  string
	Status                Status
	Tier                  Tier
	StudentAccessDisabled bool
	ArchivedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewTenant creates an active tenant on the given tier.
func NewTenant(id, name, slug string, tier Tier) Tenant {
	now := time.Now().UTC()
	return Tenant{
		ID:        id,
		Name:      name,
		Slug:      slug,
		Status:    StatusActive,
		Tier:      tier,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StoragePrefix returns the tenant's object-storage namespace, derived from
// its immutable slug.
func (t Tenant) StoragePrefix() string {
	return "tenants/" + t.Slug + "/"
}

// AllowedQuotaKeys is the closed set of keys a quota patch may carry.
// A patch containing any other key is rejected whole.
var AllowedQuotaKeys = map[string]struct{}{
	"sms_limit":        {},
	"email_limit":      {},
	"storage_limit_mb": {},
	"api_rate_limit":   {},
	"max_staff":        {},
	"max_locations":    {},
}

// ValidateQuotaPatch checks every key of a quota patch against the
// allow-list. All-or-nothing: the first unknown key fails the whole patch.
func ValidateQuotaPatch(patch map[string]int64) error {
	for key := range patch {
		if _, ok := AllowedQuotaKeys[key]; !ok {
			return &QuotaKeyError{Key: key}
		}
	}
	return nil
}
