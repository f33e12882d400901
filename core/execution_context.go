package core

import (
	"fmt"
	"time"
)

// Binding is a live credential for one external capability endpoint.
type Binding struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

// CapabilityBinding is the resolution result for one capability. Absence of
// directory credentials is an expected state, not an error, so availability
// is an explicit variant rather than a missing map key.
type CapabilityBinding struct {
	Available bool    `json:"available"`
	Binding   Binding `json:"binding"`
}

// ExecutionContext is the per-request bundle of tenant identity and resolved
// capability credentials. It is built fresh on every invocation, owned by the
// single in-flight request that created it, and must never be cached or
// shared across tenants or requests.
type ExecutionContext struct {
	TenantID     string                       `json:"tenant_id"`
	Capabilities map[string]CapabilityBinding `json:"resolved_credentials"`
	ResolvedAt   time.Time                    `json:"resolved_at"`
}

// NewExecutionContext creates an empty context for the given tenant.
func NewExecutionContext(tenantID string) *ExecutionContext {
	return &ExecutionContext{
		TenantID:     tenantID,
		Capabilities: map[string]CapabilityBinding{},
		ResolvedAt:   time.Now().UTC(),
	}
}

// Bind records live credentials for a capability.
func (ec *ExecutionContext) Bind(capabilityID string, b Binding) {
	ec.Capabilities[capabilityID] = CapabilityBinding{Available: true, Binding: b}
}

// MarkUnavailable records that the tenant has no usable credentials for a
// capability.
func (ec *ExecutionContext) MarkUnavailable(capabilityID string) {
	ec.Capabilities[capabilityID] = CapabilityBinding{}
}

// Capability returns the binding for a capability and whether it is
// available. Never-resolved capabilities report unavailable.
func (ec *ExecutionContext) Capability(capabilityID string) (Binding, bool) {
	cb, ok := ec.Capabilities[capabilityID]
	if !ok || !cb.Available {
		return Binding{}, false
	}
	return cb.Binding, true
}

// Require returns the binding for a capability or ErrCapabilityUnavailable.
// Nodes use it at execution time, after routing-time checks have already
// degraded turns that lack their declared requirements.
func (ec *ExecutionContext) Require(capabilityID string) (Binding, error) {
	b, ok := ec.Capability(capabilityID)
	if !ok {
		return Binding{}, fmt.Errorf("capability %s: %w", capabilityID, ErrCapabilityUnavailable)
	}
	return b, nil
}

// Missing returns the subset of required capability ids that are not
// available in this context, preserving input order.
func (ec *ExecutionContext) Missing(required []string) []string {
	var missing []string
	for _, id := range required {
		if _, ok := ec.Capability(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
