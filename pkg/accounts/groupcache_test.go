package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	ids   map[string]int64
	calls int
}

func (d *countingDirectory) ResolveSpecialGroup(_ context.Context, name string) (int64, error) {
	d.calls++
	id, ok := d.ids[name]
	if !ok {
		return 0, ErrGroupNotFound
	}
	return id, nil
}

func TestCachedGroupDirectory_CachesHits(t *testing.T) {
	inner := &countingDirectory{ids: map[string]int64{GroupRegistered: 2}}
	dir := NewCachedGroupDirectory(inner, time.Minute)

	for i := 0; i < 5; i++ {
		id, err := dir.ResolveSpecialGroup(context.Background(), GroupRegistered)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
	}

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGroupDirectory_DoesNotCacheFailures(t *testing.T) {
	inner := &countingDirectory{ids: map[string]int64{}}
	dir := NewCachedGroupDirectory(inner, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := dir.ResolveSpecialGroup(context.Background(), GroupAdministrators)
		assert.ErrorIs(t, err, ErrGroupNotFound)
	}

	// A fixed forum configuration must be picked up on the next login.
	inner.ids[GroupAdministrators] = 5
	id, err := dir.ResolveSpecialGroup(context.Background(), GroupAdministrators)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, 4, inner.calls)
}
