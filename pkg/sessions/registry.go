package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a token has no registered session.
var ErrSessionNotFound = errors.New("session not found")

// Entry records one granted session and the provider cookie that backs it.
type Entry struct {
	// Token is the local session token handed to the caller.
	Token string `json:"token"`

	// UserID and Username identify the reconciled local account.
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`

	// CookieValue is the shared provider cookie the grant was based on.
	// Revalidation replays it against the provider.
	CookieValue string `json:"cookie_value"`

	GrantedAt       time.Time `json:"granted_at"`
	LastValidatedAt time.Time `json:"last_validated_at"`
}

// Registry stores granted sessions keyed by token.
type Registry interface {
	// Put registers or replaces a session entry.
	Put(ctx context.Context, entry Entry) error

	// Get returns the entry for a token, or ErrSessionNotFound.
	Get(ctx context.Context, token string) (Entry, error)

	// Touch refreshes an entry's LastValidatedAt and its TTL.
	Touch(ctx context.Context, token string, at time.Time) error

	// Delete removes a session. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error

	// List returns all live entries.
	List(ctx context.Context) ([]Entry, error)

	// Count returns the number of live entries.
	Count(ctx context.Context) (int, error)
}
