package checkpoint

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/core"
)

func TestInMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	cp := core.NewCheckpoint("tenant-a", "thread-1").Next()
	cp.AppendMessages(core.NewUserMessage("hello"))
	cp.State = core.StateCompleted

	require.NoError(t, store.Put(ctx, "tenant-a", "thread-1", 0, cp))

	got, err := store.Get(ctx, "tenant-a", "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, cp.Messages, got.Messages)
	assert.Equal(t, core.StateCompleted, got.State)
}

func TestInMemoryStore_GetUnknownThread(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Get(context.Background(), "tenant-a", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemoryStore_TenantScoping(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	cp := core.NewCheckpoint("tenant-a", "thread-1").Next()
	require.NoError(t, store.Put(ctx, "tenant-a", "thread-1", 0, cp))

	_, err := store.Get(ctx, "tenant-b", "thread-1")
	assert.ErrorIs(t, err, core.ErrNotFound, "another tenant's thread must read as missing")

	listed, err := store.List(ctx, "tenant-b")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestInMemoryStore_VersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	genesis := core.NewCheckpoint("tenant-a", "thread-1")
	first := genesis.Next()
	require.NoError(t, store.Put(ctx, "tenant-a", "thread-1", 0, first))

	stale := genesis.Next() // also built against version 0
	err := store.Put(ctx, "tenant-a", "thread-1", 0, stale)
	assert.ErrorIs(t, err, core.ErrConflict)

	got, err := store.Get(ctx, "tenant-a", "thread-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version, "losing write must not advance the thread")
}

func TestInMemoryStore_ConcurrentAppendsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	base := core.NewCheckpoint("tenant-a", "thread-1").Next()
	require.NoError(t, store.Put(ctx, "tenant-a", "thread-1", 0, base))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := base.Next()
			errs[i] = store.Put(ctx, "tenant-a", "thread-1", base.Version, next)
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, core.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one of two racing appends must fail")
}

func TestInMemoryStore_CloneOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	cp := core.NewCheckpoint("tenant-a", "thread-1").Next()
	cp.AppendMessages(core.NewUserMessage("hello"))
	require.NoError(t, store.Put(ctx, "tenant-a", "thread-1", 0, cp))

	cp.Messages[0].Content = "mutated after put"

	got, err := store.Get(ctx, "tenant-a", "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Messages[0].Content)

	got.Messages[0].Content = "mutated after get"
	again, err := store.Get(ctx, "tenant-a", "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Content)
}
