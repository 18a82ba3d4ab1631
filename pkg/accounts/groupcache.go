package accounts

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedGroupDirectory caches special-group resolutions in front of a
// GroupDirectory. The special group rows are effectively static
// configuration, so a short TTL keeps the cache honest without a lookup
// on every login. Resolution failures are not cached: a misconfigured
// group should recover as soon as the operator fixes the forum.
type CachedGroupDirectory struct {
	inner GroupDirectory
	cache *expirable.LRU[string, int64]
}

// NewCachedGroupDirectory wraps dir with a TTL cache. A ttl of zero
// disables expiry.
func NewCachedGroupDirectory(dir GroupDirectory, ttl time.Duration) *CachedGroupDirectory {
	return &CachedGroupDirectory{
		inner: dir,
		cache: expirable.NewLRU[string, int64](16, nil, ttl),
	}
}

// ResolveSpecialGroup returns the cached group ID or falls through to the
// wrapped directory.
func (d *CachedGroupDirectory) ResolveSpecialGroup(ctx context.Context, name string) (int64, error) {
	if id, ok := d.cache.Get(name); ok {
		return id, nil
	}

	id, err := d.inner.ResolveSpecialGroup(ctx, name)
	if err != nil {
		return 0, err
	}

	d.cache.Add(name, id)
	return id, nil
}
