package accounts

import "time"

// RoleTier is the local privilege classification. Values mirror the forum's
// user_type column so rows written by the bridge are readable by the host.
type RoleTier int

const (
	RoleNormal   RoleTier = 0 // regular registered user
	RoleInactive RoleTier = 1 // account exists but may not log in
	RoleIgnored  RoleTier = 2 // banned / ignored by the forum
	RoleFounder  RoleTier = 3 // founder-level administrator
)

// Disabled reports whether an account with this tier must be denied a
// session regardless of what the remote provider asserts.
func (r RoleTier) Disabled() bool {
	return r == RoleInactive || r == RoleIgnored
}

func (r RoleTier) String() string {
	switch r {
	case RoleNormal:
		return "normal"
	case RoleInactive:
		return "inactive"
	case RoleIgnored:
		return "ignored"
	case RoleFounder:
		return "founder"
	default:
		return "unknown"
	}
}

// Names of the special groups the role mapper resolves. These are fixed
// rows in the forum's group table, not operator configuration.
const (
	GroupAdministrators = "ADMINISTRATORS"
	GroupRegistered     = "REGISTERED"
)

// User is the authoritative local identity record. PasswordHash holds a
// generated placeholder credential: it satisfies the host's storage
// contract but is never consulted for login decisions.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	UsernameClean string    `json:"username_clean"`
	Email         string    `json:"email,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	GroupID       int64     `json:"group_id"`
	Role          RoleTier  `json:"role"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Group is a named role bucket resolved to an opaque ID by the directory.
// Read-only from the bridge's perspective.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
