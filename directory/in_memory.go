// Package directory houses concrete implementations of the
// core.CredentialDirectory contract. The interface itself lives in core to
// keep higher level packages off concrete storage.
package directory

import (
	"context"
	"sync"

	"github.com/hupe1980/tenantmesh/core"
)

// InMemoryDirectory is a volatile credential/tool directory keyed by
// (tenant, capability). It is safe for concurrent access and suited to tests
// and single-process deployments. Absent entries are a normal lookup result,
// not an error.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	bindings map[string]map[string]core.Binding // tenantID -> capabilityID -> binding
}

// NewInMemoryDirectory constructs an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{bindings: make(map[string]map[string]core.Binding)}
}

// NewInMemoryDirectoryFromBindings constructs a directory pre-seeded with
// per-tenant capability bindings, e.g. from configuration.
func NewInMemoryDirectoryFromBindings(seed map[string]map[string]core.Binding) *InMemoryDirectory {
	d := NewInMemoryDirectory()
	for tenantID, caps := range seed {
		for capabilityID, b := range caps {
			d.Register(tenantID, capabilityID, b)
		}
	}
	return d
}

// Register stores (or rotates) credentials for a tenant's capability.
func (d *InMemoryDirectory) Register(tenantID, capabilityID string, b core.Binding) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bindings[tenantID]; !ok {
		d.bindings[tenantID] = make(map[string]core.Binding)
	}
	d.bindings[tenantID][capabilityID] = b
}

// Remove deletes a tenant's credentials for a capability. Removing an absent
// entry is a no-op.
func (d *InMemoryDirectory) Remove(tenantID, capabilityID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings[tenantID], capabilityID)
}

// Lookup implements core.CredentialDirectory.
func (d *InMemoryDirectory) Lookup(_ context.Context, tenantID, capabilityID string) (core.Binding, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	caps, ok := d.bindings[tenantID]
	if !ok {
		return core.Binding{}, false, nil
	}
	b, ok := caps[capabilityID]
	return b, ok, nil
}
