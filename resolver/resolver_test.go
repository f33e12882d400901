package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/directory"
	"github.com/hupe1980/tenantmesh/identity"
	"github.com/hupe1980/tenantmesh/internal/testutil"
)

func newFixtures() (*identity.StaticVerifier, *directory.InMemoryDirectory) {
	verifier := identity.NewStaticVerifier()
	verifier.Register("token-alice", "alice")
	verifier.Register("token-bob", "bob")

	dir := directory.NewInMemoryDirectory()
	dir.Register("alice", "calendar", core.Binding{Endpoint: "https://cal.example.com/alice", Token: "cal-alice"})
	dir.Register("alice", "email", core.Binding{Endpoint: "https://mail.example.com/alice", Token: "mail-alice"})
	dir.Register("bob", "email", core.Binding{Endpoint: "https://mail.example.com/bob", Token: "mail-bob"})

	return verifier, dir
}

func TestResolver_InvalidTokenFailsClosed(t *testing.T) {
	verifier, dir := newFixtures()
	r := New(verifier, dir, func(o *Options) { o.Capabilities = []string{"calendar"} })

	_, err := r.Resolve(context.Background(), "bogus")
	assert.ErrorIs(t, err, core.ErrAuthentication)

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrAuthentication)
}

func TestResolver_MissingCapabilityDegrades(t *testing.T) {
	verifier, dir := newFixtures()
	r := New(verifier, dir, func(o *Options) { o.Capabilities = []string{"calendar", "email"} })

	ec, err := r.Resolve(context.Background(), "token-bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", ec.TenantID)

	_, ok := ec.Capability("calendar")
	assert.False(t, ok, "absent directory entry resolves to unavailable, not an error")

	b, ok := ec.Capability("email")
	require.True(t, ok)
	assert.Equal(t, "mail-bob", b.Token)
}

func TestResolver_NoCrossTenantLeakage(t *testing.T) {
	verifier, dir := newFixtures()
	r := New(verifier, dir, func(o *Options) { o.Capabilities = []string{"email"} })

	var wg sync.WaitGroup
	tokens := map[string]string{"token-alice": "mail-alice", "token-bob": "mail-bob"}
	for token, want := range tokens {
		for range 20 {
			wg.Add(1)
			go func(token, want string) {
				defer wg.Done()
				ec, err := r.Resolve(context.Background(), token)
				if assert.NoError(t, err) {
					b, ok := ec.Capability("email")
					assert.True(t, ok)
					assert.Equal(t, want, b.Token)
				}
			}(token, want)
		}
	}
	wg.Wait()
}

func TestResolver_RotatedCredentialsResolveFresh(t *testing.T) {
	verifier, dir := newFixtures()
	r := New(verifier, dir, func(o *Options) { o.Capabilities = []string{"email"} })

	first, err := r.Resolve(context.Background(), "token-alice")
	require.NoError(t, err)
	b, _ := first.Capability("email")
	assert.Equal(t, "mail-alice", b.Token)

	dir.Register("alice", "email", core.Binding{Endpoint: "https://mail.example.com/alice", Token: "mail-alice-rotated"})

	second, err := r.Resolve(context.Background(), "token-alice")
	require.NoError(t, err)
	b, _ = second.Capability("email")
	assert.Equal(t, "mail-alice-rotated", b.Token, "each request must see current credentials, never a cached context")
}

func TestResolver_SlowVerifierFailsAsAuthentication(t *testing.T) {
	_, dir := newFixtures()
	slow := &testutil.SlowVerifier{Delay: 200 * time.Millisecond, TenantID: "alice"}
	r := New(slow, dir, func(o *Options) { o.Timeout = 10 * time.Millisecond })

	_, err := r.Resolve(context.Background(), "token-alice")
	assert.ErrorIs(t, err, core.ErrAuthentication, "verifier timeout must be indistinguishable from rejection")
}

func TestResolver_SlowDirectoryDegradesToUnavailable(t *testing.T) {
	verifier, _ := newFixtures()
	slow := &testutil.SlowDirectory{Delay: 200 * time.Millisecond, Binding: core.Binding{Token: "never-seen"}}
	r := New(verifier, slow, func(o *Options) {
		o.Timeout = 20 * time.Millisecond
		o.Capabilities = []string{"calendar"}
	})

	start := time.Now()
	ec, err := r.Resolve(context.Background(), "token-alice")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "lookup must be bounded by the timeout")

	_, ok := ec.Capability("calendar")
	assert.False(t, ok, "timed-out lookup degrades to unavailable")
}
