// Package resolver builds request-scoped execution contexts: it verifies the
// caller's bearer credential and fetches the tenant's live capability
// credentials from the directory. Contexts are resolved fresh on every
// invocation and never cached; a process-wide cache keyed by capability
// alone would leak credentials across tenants, which is the root failure
// mode this package guards against.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/logging"
)

// DefaultTimeout bounds each external call (identity verification, one
// directory lookup). Slow or unreachable collaborators degrade to
// "capability unavailable" instead of hanging the request.
const DefaultTimeout = 5 * time.Second

// Options configure a Resolver.
type Options struct {
	// Timeout bounds each external call made during resolution.
	Timeout time.Duration
	// Capabilities lists the capability ids resolved for every request.
	Capabilities []string
	// Logger for resolution diagnostics.
	Logger logging.Logger
}

// Resolver produces a fully-resolved ExecutionContext per request. It is
// safe for concurrent use; no state is shared between resolutions.
type Resolver struct {
	verifier     core.IdentityVerifier
	directory    core.CredentialDirectory
	timeout      time.Duration
	capabilities []string
	logger       logging.Logger
}

// New constructs a Resolver with optional overrides.
func New(verifier core.IdentityVerifier, directory core.CredentialDirectory, optFns ...func(o *Options)) *Resolver {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Resolver{
		verifier:     verifier,
		directory:    directory,
		timeout:      opts.Timeout,
		capabilities: opts.Capabilities,
		logger:       logging.OrNoOp(opts.Logger),
	}
}

// Verify validates the bearer credential with a bounded timeout. Transport
// failures and rejected credentials both surface as core.ErrAuthentication.
func (r *Resolver) Verify(ctx context.Context, bearerToken string) (core.Identity, error) {
	if bearerToken == "" {
		return core.Identity{}, fmt.Errorf("resolve identity: %w", core.ErrAuthentication)
	}

	vctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.verifier.Verify(vctx, bearerToken)
	if err != nil || id.TenantID == "" {
		r.logger.Debug("identity verification rejected", "error", err)
		return core.Identity{}, fmt.Errorf("resolve identity: %w", core.ErrAuthentication)
	}
	return id, nil
}

// Resolve verifies the caller and builds a fresh ExecutionContext carrying
// the tenant's live credentials for every configured capability. Missing
// directory entries, lookup errors and lookup timeouts all resolve to an
// unavailable binding so routing can degrade gracefully.
func (r *Resolver) Resolve(ctx context.Context, bearerToken string) (*core.ExecutionContext, error) {
	start := time.Now()

	id, err := r.Verify(ctx, bearerToken)
	if err != nil {
		return nil, err
	}

	ec := core.NewExecutionContext(id.TenantID)
	unavailable := 0
	for _, capabilityID := range r.capabilities {
		b, ok, err := r.lookup(ctx, id.TenantID, capabilityID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				r.logger.Warn("directory lookup timed out", "tenant_id", id.TenantID, "capability_id", capabilityID)
			} else {
				r.logger.Warn("directory lookup failed", "tenant_id", id.TenantID, "capability_id", capabilityID, "error", err)
			}
			ec.MarkUnavailable(capabilityID)
			unavailable++
			continue
		}
		if !ok {
			ec.MarkUnavailable(capabilityID)
			unavailable++
			continue
		}
		ec.Bind(capabilityID, b)
	}

	r.logger.Debug("execution context resolved",
		"tenant_id", id.TenantID,
		"resolved", len(r.capabilities)-unavailable,
		"unavailable", unavailable,
		"duration", time.Since(start))

	return ec, nil
}

func (r *Resolver) lookup(ctx context.Context, tenantID, capabilityID string) (core.Binding, bool, error) {
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.directory.Lookup(lctx, tenantID, capabilityID)
}
