package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry for single-node deployments.
// Entries expire ttl after their last validation.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryRegistry creates an in-memory registry. A non-positive ttl
// disables expiry.
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemoryRegistry) expired(e Entry) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().Sub(e.LastValidatedAt) > r.ttl
}

func (r *MemoryRegistry) Put(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.Token] = entry
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, token string) (Entry, error) {
	r.mu.RLock()
	entry, ok := r.entries[token]
	r.mu.RUnlock()
	if !ok || r.expired(entry) {
		return Entry{}, ErrSessionNotFound
	}
	return entry, nil
}

func (r *MemoryRegistry) Touch(_ context.Context, token string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[token]
	if !ok {
		return ErrSessionNotFound
	}
	entry.LastValidatedAt = at
	r.entries[token] = entry
	return nil
}

func (r *MemoryRegistry) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
	return nil
}

func (r *MemoryRegistry) List(_ context.Context) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make([]Entry, 0, len(r.entries))
	for token, entry := range r.entries {
		if r.expired(entry) {
			delete(r.entries, token)
			continue
		}
		live = append(live, entry)
	}
	return live, nil
}

func (r *MemoryRegistry) Count(ctx context.Context) (int, error) {
	live, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(live), nil
}
