package accounts

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Store lookups that match no account.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateUsername is returned by Create when the store's
	// uniqueness constraint rejects the row. Concurrent first logins by
	// the same user race to create; the loser surfaces this error.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrGroupNotFound is returned when a special group name resolves to
	// no row. This indicates forum misconfiguration, not a user problem.
	ErrGroupNotFound = errors.New("special group not found")
)

// Store is the account directory consumed by reconciliation. The key
// passed to FindByNormalizedUsername must come from NormalizeUsername.
// Implementations are expected to provide read-your-writes consistency
// for the create-then-requery sequence.
type Store interface {
	// FindByNormalizedUsername returns the account whose clean username
	// equals key, or ErrNotFound.
	FindByNormalizedUsername(ctx context.Context, key string) (*User, error)

	// Create persists a new account. The store's uniqueness constraint on
	// the clean username is the only guard against duplicate creation;
	// constraint violations map to ErrDuplicateUsername.
	Create(ctx context.Context, user *User) error

	// UpdateProfile refreshes the mutable attributes the provider asserts.
	UpdateProfile(ctx context.Context, id int64, email, avatar string) error
}

// GroupDirectory resolves the forum's special groups by name.
type GroupDirectory interface {
	// ResolveSpecialGroup returns the opaque group ID for a special group
	// name such as "REGISTERED", or ErrGroupNotFound.
	ResolveSpecialGroup(ctx context.Context, name string) (int64, error)
}
