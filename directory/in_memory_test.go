package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/core"
)

func TestInMemoryDirectory(t *testing.T) {
	d := NewInMemoryDirectory()
	d.Register("alice", "calendar", core.Binding{Endpoint: "https://cal.example.com", Token: "cal-alice"})

	b, ok, err := d.Lookup(context.Background(), "alice", "calendar")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cal-alice", b.Token)

	// Absence is not an error.
	_, ok, err = d.Lookup(context.Background(), "alice", "email")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = d.Lookup(context.Background(), "bob", "calendar")
	require.NoError(t, err)
	assert.False(t, ok, "bindings are scoped per tenant")

	d.Remove("alice", "calendar")
	_, ok, err = d.Lookup(context.Background(), "alice", "calendar")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryDirectory_Seeded(t *testing.T) {
	d := NewInMemoryDirectoryFromBindings(map[string]map[string]core.Binding{
		"alice": {"calendar": {Token: "cal-alice"}},
		"bob":   {"email": {Token: "mail-bob"}},
	})

	b, ok, err := d.Lookup(context.Background(), "bob", "email")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mail-bob", b.Token)
}

func TestInMemoryDirectory_RegisterOverwrites(t *testing.T) {
	d := NewInMemoryDirectory()
	d.Register("alice", "email", core.Binding{Token: "v1"})
	d.Register("alice", "email", core.Binding{Token: "v2"})

	b, ok, err := d.Lookup(context.Background(), "alice", "email")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", b.Token)
}
