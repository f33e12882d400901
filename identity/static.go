// Package identity houses concrete implementations of the
// core.IdentityVerifier contract: a static in-process verifier for tests and
// demos, and an HTTP introspection verifier for real deployments.
package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/tenantmesh/core"
)

// StaticVerifier resolves bearer tokens from an in-process map. It is safe
// for concurrent access and best suited to tests and local development.
type StaticVerifier struct {
	mu     sync.RWMutex
	tokens map[string]string // bearerToken -> tenantID
}

// NewStaticVerifier constructs an empty verifier. Every Verify call fails
// until tokens are registered.
func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{tokens: make(map[string]string)}
}

// Register maps a bearer token to a tenant id, overwriting any previous
// mapping for the token.
func (v *StaticVerifier) Register(bearerToken, tenantID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens[bearerToken] = tenantID
}

// Revoke removes a bearer token.
func (v *StaticVerifier) Revoke(bearerToken string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.tokens, bearerToken)
}

// Verify implements core.IdentityVerifier.
func (v *StaticVerifier) Verify(_ context.Context, bearerToken string) (core.Identity, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	tenantID, ok := v.tokens[bearerToken]
	if !ok || tenantID == "" {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}
	return core.Identity{TenantID: tenantID}, nil
}
