// Package isolation enforces the tenant boundary on every persistence
// operation. The Filter is the single choke point through which all
// checkpoint reads and writes pass: the supervisor only ever holds a
// ScopedStore bound to one verified identity, and capability nodes are never
// handed a raw store at all.
package isolation

import (
	"context"
	"fmt"

	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/logging"
)

// Options configure a Filter.
type Options struct {
	Logger logging.Logger
}

// Filter wraps a CheckpointStore and issues tenant-scoped handles. It never
// performs storage operations itself; callers must Scope first, which fails
// closed for unauthenticated identities.
type Filter struct {
	store  core.CheckpointStore
	logger logging.Logger
}

// New constructs a Filter over the given store.
func New(store core.CheckpointStore, optFns ...func(o *Options)) *Filter {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Filter{store: store, logger: logging.OrNoOp(opts.Logger)}
}

// Scope returns a storage handle bound to the verified identity. An empty
// tenant id fails with core.ErrAuthentication before any store access.
func (f *Filter) Scope(id core.Identity) (*ScopedStore, error) {
	if id.TenantID == "" {
		return nil, fmt.Errorf("scope checkpoint store: %w", core.ErrAuthentication)
	}
	return &ScopedStore{tenantID: id.TenantID, store: f.store, logger: f.logger}, nil
}

// ScopedStore is a tenant-bound persistence handle. Every operation is
// implicitly scoped to the bound tenant; threads owned by other tenants are
// indistinguishable from missing ones.
type ScopedStore struct {
	tenantID string
	store    core.CheckpointStore
	logger   logging.Logger
}

// TenantID returns the tenant this handle is bound to.
func (s *ScopedStore) TenantID() string { return s.tenantID }

// NewThread builds the genesis snapshot for a thread, stamping the bound
// tenant id. Callers cannot supply a tenant of their own; the stamp comes
// exclusively from the verified identity. Nothing is persisted until the
// first Append.
func (s *ScopedStore) NewThread(threadID string) *core.Checkpoint {
	if threadID == "" {
		threadID = core.NewID()
	}
	return core.NewCheckpoint(s.tenantID, threadID)
}

// Get returns the latest snapshot of a thread owned by the bound tenant, or
// core.ErrNotFound otherwise.
func (s *ScopedStore) Get(ctx context.Context, threadID string) (*core.Checkpoint, error) {
	cp, err := s.store.Get(ctx, s.tenantID, threadID)
	if err != nil {
		return nil, err
	}
	if cp.TenantID != s.tenantID {
		// A store answering across the tenant boundary is a storage bug;
		// mask it as not-found so no existence leaks to the caller.
		s.logger.Error("checkpoint store returned foreign tenant data", "thread_id", threadID)
		return nil, fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	return cp, nil
}

// ListOptions filter a List call.
type ListOptions struct {
	// State restricts results to threads whose latest snapshot carries the
	// given state. Empty means all states.
	State core.ThreadState
}

// List returns the latest snapshot of every thread the bound tenant owns,
// optionally filtered.
func (s *ScopedStore) List(ctx context.Context, optFns ...func(o *ListOptions)) ([]*core.Checkpoint, error) {
	var opts ListOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cps, err := s.store.List(ctx, s.tenantID)
	if err != nil {
		return nil, err
	}
	res := cps[:0]
	for _, cp := range cps {
		if cp.TenantID != s.tenantID {
			s.logger.Error("checkpoint store listed foreign tenant data", "thread_id", cp.ThreadID)
			continue
		}
		if opts.State != "" && cp.State != opts.State {
			continue
		}
		res = append(res, cp)
	}
	return res, nil
}

// Append persists next as the successor of prev using optimistic
// concurrency. The tenant stamp, thread id and version are enforced here
// regardless of what the caller set; a stale prev yields core.ErrConflict.
func (s *ScopedStore) Append(ctx context.Context, prev, next *core.Checkpoint) (*core.Checkpoint, error) {
	next.TenantID = s.tenantID
	next.ThreadID = prev.ThreadID
	next.Version = prev.Version + 1

	if err := s.store.Put(ctx, s.tenantID, next.ThreadID, prev.Version, next); err != nil {
		return nil, err
	}

	s.logger.Debug("checkpoint appended",
		"tenant_id", s.tenantID,
		"thread_id", next.ThreadID,
		"version", next.Version,
		"state", string(next.State))

	return next, nil
}
