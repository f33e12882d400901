package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/tenantmesh/core"
)

// ScriptedClassifier returns canned routing decisions in order; the last
// decision repeats once the script is exhausted.
type ScriptedClassifier struct {
	mu        sync.Mutex
	Decisions []core.RoutingDecision
	Calls     int
}

// Classify implements core.Classifier.
func (c *ScriptedClassifier) Classify(_ context.Context, _ []core.Message, _ []core.NodeInfo) (core.RoutingDecision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.Calls
	c.Calls++
	if i >= len(c.Decisions) {
		i = len(c.Decisions) - 1
	}
	return c.Decisions[i], nil
}

// StubNode is a scripted core.Node. Outcomes are returned in order (the last
// repeats) and every received input is recorded for assertions.
type StubNode struct {
	mu sync.Mutex

	NodeName    string
	NodeDesc    string
	Required    []string
	Outcomes    []core.Outcome
	Err         error
	Inputs      []core.NodeInput
	invocations int
}

// Name implements core.Node.
func (n *StubNode) Name() string { return n.NodeName }

// Description implements core.Node.
func (n *StubNode) Description() string { return n.NodeDesc }

// RequiredCapabilities implements core.Node.
func (n *StubNode) RequiredCapabilities() []string { return n.Required }

// Step implements core.Node.
func (n *StubNode) Step(_ context.Context, in core.NodeInput) (core.Outcome, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Inputs = append(n.Inputs, in)
	if n.Err != nil {
		return nil, n.Err
	}
	i := n.invocations
	n.invocations++
	if i >= len(n.Outcomes) {
		i = len(n.Outcomes) - 1
	}
	return n.Outcomes[i], nil
}

// SlowDirectory delays every lookup, honoring context cancellation, to
// exercise resolver timeouts.
type SlowDirectory struct {
	Delay   time.Duration
	Binding core.Binding
}

// Lookup implements core.CredentialDirectory.
func (d *SlowDirectory) Lookup(ctx context.Context, _, _ string) (core.Binding, bool, error) {
	select {
	case <-time.After(d.Delay):
		return d.Binding, true, nil
	case <-ctx.Done():
		return core.Binding{}, false, ctx.Err()
	}
}

// SlowVerifier delays verification, honoring context cancellation.
type SlowVerifier struct {
	Delay    time.Duration
	TenantID string
}

// Verify implements core.IdentityVerifier.
func (v *SlowVerifier) Verify(ctx context.Context, _ string) (core.Identity, error) {
	select {
	case <-time.After(v.Delay):
		return core.Identity{TenantID: v.TenantID}, nil
	case <-ctx.Done():
		return core.Identity{}, ctx.Err()
	}
}

// ConflictOnceStore wraps a core.CheckpointStore and rejects the first Put
// with core.ErrConflict-shaped behavior from the inner store by applying a
// competing append before the first call goes through, simulating a racing
// writer.
type ConflictOnceStore struct {
	core.CheckpointStore

	mu       sync.Mutex
	Competer func(ctx context.Context) error
	fired    bool
}

// Put implements core.CheckpointStore, firing the competing write once
// before delegating.
func (s *ConflictOnceStore) Put(ctx context.Context, tenantID, threadID string, expectedVersion int, cp *core.Checkpoint) error {
	s.mu.Lock()
	fire := !s.fired
	s.fired = true
	s.mu.Unlock()

	if fire && s.Competer != nil {
		if err := s.Competer(ctx); err != nil {
			return err
		}
	}
	return s.CheckpointStore.Put(ctx, tenantID, threadID, expectedVersion, cp)
}
