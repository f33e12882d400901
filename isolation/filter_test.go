package isolation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/checkpoint"
	"github.com/hupe1980/tenantmesh/core"
)

func TestFilter_ScopeRequiresIdentity(t *testing.T) {
	f := New(checkpoint.NewInMemoryStore())

	_, err := f.Scope(core.Identity{})
	assert.ErrorIs(t, err, core.ErrAuthentication)

	scoped, err := f.Scope(core.Identity{TenantID: "tenant-a"})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", scoped.TenantID())
}

func TestScopedStore_AppendStampsTenant(t *testing.T) {
	ctx := context.Background()
	f := New(checkpoint.NewInMemoryStore())
	scoped, err := f.Scope(core.Identity{TenantID: "tenant-a"})
	require.NoError(t, err)

	prev := scoped.NewThread("thread-1")
	next := prev.Next()
	next.TenantID = "tenant-evil" // caller-supplied tenant must be overwritten

	committed, err := scoped.Append(ctx, prev, next)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", committed.TenantID)
	assert.Equal(t, 1, committed.Version)
}

func TestScopedStore_CrossTenantReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewInMemoryStore()
	f := New(store)

	alice, err := f.Scope(core.Identity{TenantID: "alice"})
	require.NoError(t, err)
	prev := alice.NewThread("thread-1")
	_, err = alice.Append(ctx, prev, prev.Next())
	require.NoError(t, err)

	bob, err := f.Scope(core.Identity{TenantID: "bob"})
	require.NoError(t, err)

	_, err = bob.Get(ctx, "thread-1")
	assert.ErrorIs(t, err, core.ErrNotFound, "foreign thread must be indistinguishable from a missing one")

	listed, err := bob.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestScopedStore_ListFiltersByState(t *testing.T) {
	ctx := context.Background()
	f := New(checkpoint.NewInMemoryStore())
	scoped, err := f.Scope(core.Identity{TenantID: "tenant-a"})
	require.NoError(t, err)

	completed := scoped.NewThread("done")
	next := completed.Next()
	next.State = core.StateCompleted
	_, err = scoped.Append(ctx, completed, next)
	require.NoError(t, err)

	suspended := scoped.NewThread("waiting")
	next = suspended.Next()
	ap := core.NewPendingApproval("booking", core.ActionRequest{Action: "create_event"}, "")
	require.NoError(t, next.SetPending(&ap))
	_, err = scoped.Append(ctx, suspended, next)
	require.NoError(t, err)

	listed, err := scoped.List(ctx, func(o *ListOptions) { o.State = core.StateSuspended })
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "waiting", listed[0].ThreadID)
}

func TestScopedStore_AppendConflictSurfaces(t *testing.T) {
	ctx := context.Background()
	f := New(checkpoint.NewInMemoryStore())
	scoped, err := f.Scope(core.Identity{TenantID: "tenant-a"})
	require.NoError(t, err)

	prev := scoped.NewThread("thread-1")
	_, err = scoped.Append(ctx, prev, prev.Next())
	require.NoError(t, err)

	// A second append built against the stale genesis races the first.
	_, err = scoped.Append(ctx, prev, prev.Next())
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestScopedStore_NewThreadGeneratesID(t *testing.T) {
	f := New(checkpoint.NewInMemoryStore())
	scoped, err := f.Scope(core.Identity{TenantID: "tenant-a"})
	require.NoError(t, err)

	cp := scoped.NewThread("")
	assert.NotEmpty(t, cp.ThreadID)
	assert.Equal(t, "tenant-a", cp.TenantID)
	assert.Equal(t, 0, cp.Version)
}
