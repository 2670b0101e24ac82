package domain

import "time"

// User is a global person record, potentially shared across tenants. An
// instructor or owner may belong to more than one studio; a user row is
// deleted only by orphan reclamation, never by a per-tenant purge phase.
type User struct {
	ID            string
	Email         string
	Name          string
	Role          string
	PlatformAdmin bool
	CreatedAt     time.Time
}

// RolePlatformAdmin marks a user as holding platform-wide privilege,
// equivalent to the PlatformAdmin flag. Either protects the row from
// reclamation.
const RolePlatformAdmin = "platform_admin"

// Protected reports whether the user carries platform-administrator
// privilege by flag or by role.
func (u User) Protected() bool {
	return u.PlatformAdmin || u.Role == RolePlatformAdmin
}

// Membership joins a User to a Tenant with a tenant-scoped role. It is
// removed in the member phase of a purge, strictly before orphan
// reclamation runs.
type Membership struct {
	ID        string
	TenantID  string
	UserID    string
	Role      string
	CreatedAt time.Time
}

// Relationship links two users across tenant boundaries (family accounts,
// emergency contacts). Rows referencing a reclaimed user from either side
// are removed with it.
type Relationship struct {
	ID           string
	ParentUserID string
	ChildUserID  string
	Kind         string
	CreatedAt    time.Time
}
