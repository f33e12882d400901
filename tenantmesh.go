// Package tenantmesh provides a high-level façade over the supervisor router
// and service abstractions (identity, credential directory, checkpoint store
// and logging) enabling rapid construction of multi-tenant conversational
// workflow engines. Most applications interact with this package by:
//  1. Creating a Mesh via New() (optionally overriding default in-memory services)
//  2. Registering one or more capability nodes
//  3. Calling SendMessage / Resume per authenticated request
//
// The façade delegates orchestration to router.Supervisor while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments supply a durable checkpoint store, a real
// identity verifier and a structured logger.
package tenantmesh

import (
	"context"
	"time"

	"github.com/hupe1980/tenantmesh/checkpoint"
	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/directory"
	"github.com/hupe1980/tenantmesh/identity"
	"github.com/hupe1980/tenantmesh/isolation"
	"github.com/hupe1980/tenantmesh/logging"
	"github.com/hupe1980/tenantmesh/resolver"
	"github.com/hupe1980/tenantmesh/router"
)

// Options configures the Mesh instance.
type Options struct {
	// CheckpointStore persists versioned thread snapshots.
	// Defaults to an in-memory implementation if not provided.
	CheckpointStore core.CheckpointStore

	// Verifier validates bearer credentials. Defaults to an empty static
	// verifier, which rejects every request until tokens are registered.
	Verifier core.IdentityVerifier

	// Directory resolves per-tenant capability credentials.
	// Defaults to an empty in-memory directory.
	Directory core.CredentialDirectory

	// Capabilities lists the capability ids resolved for every request.
	Capabilities []string

	// ResolveTimeout bounds each identity/directory call during
	// resolution.
	ResolveTimeout time.Duration

	// MaxHops limits routing/dispatch cycles per turn.
	MaxHops int

	// ConflictRetries caps turn replays after a checkpoint version
	// conflict.
	ConflictRetries int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating the resolver, isolation filter
// and supervisor.
type Mesh struct {
	resolver   *resolver.Resolver
	filter     *isolation.Filter
	supervisor *router.Supervisor
}

// New creates a Mesh driven by the given classifier, with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(classifier core.Classifier, optFns ...func(o *Options)) *Mesh {
	opts := Options{
		CheckpointStore: checkpoint.NewInMemoryStore(),
		Verifier:        identity.NewStaticVerifier(),
		Directory:       directory.NewInMemoryDirectory(),
		ResolveTimeout:  resolver.DefaultTimeout,
		MaxHops:         8,
		ConflictRetries: 2,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	res := resolver.New(opts.Verifier, opts.Directory, func(o *resolver.Options) {
		o.Timeout = opts.ResolveTimeout
		o.Capabilities = opts.Capabilities
		o.Logger = opts.Logger
	})
	filter := isolation.New(opts.CheckpointStore, func(o *isolation.Options) {
		o.Logger = opts.Logger
	})
	sup := router.New(res, filter, classifier, func(o *router.Options) {
		o.MaxHops = opts.MaxHops
		o.ConflictRetries = opts.ConflictRetries
		o.Logger = opts.Logger
	})

	return &Mesh{resolver: res, filter: filter, supervisor: sup}
}

// RegisterNode adds a capability node to the supervisor.
func (m *Mesh) RegisterNode(n core.Node) { m.supervisor.Register(n) }

// SendMessage runs one user turn on the thread. An empty threadID creates a
// new thread owned by the authenticated tenant.
func (m *Mesh) SendMessage(ctx context.Context, bearerToken, threadID, text string) (*router.Turn, error) {
	return m.supervisor.SendMessage(ctx, bearerToken, threadID, text)
}

// Resume applies a human decision to the thread's outstanding approval.
func (m *Mesh) Resume(ctx context.Context, bearerToken, threadID string, decision core.ResumeDecision) (*router.Turn, error) {
	return m.supervisor.Resume(ctx, bearerToken, threadID, decision)
}

// GetThread returns the latest checkpoint of a thread owned by the
// authenticated tenant. Threads owned by other tenants are indistinguishable
// from missing ones.
func (m *Mesh) GetThread(ctx context.Context, bearerToken, threadID string) (*core.Checkpoint, error) {
	scoped, err := m.scope(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	return scoped.Get(ctx, threadID)
}

// ListThreads returns the latest checkpoint of every thread the
// authenticated tenant owns, optionally filtered.
func (m *Mesh) ListThreads(ctx context.Context, bearerToken string, optFns ...func(o *isolation.ListOptions)) ([]*core.Checkpoint, error) {
	scoped, err := m.scope(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	return scoped.List(ctx, optFns...)
}

func (m *Mesh) scope(ctx context.Context, bearerToken string) (*isolation.ScopedStore, error) {
	id, err := m.resolver.Verify(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	return m.filter.Scope(id)
}
