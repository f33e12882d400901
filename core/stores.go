package core

import "context"

// Identity is a verified tenant principal. It is immutable for the life of a
// request.
type Identity struct {
	TenantID string `json:"tenant_id"`
}

// IdentityVerifier validates an opaque bearer credential and returns a
// stable tenant identity. Implementations must not distinguish transport
// failures from rejected credentials in the errors they return; both map to
// ErrAuthentication.
type IdentityVerifier interface {
	Verify(ctx context.Context, bearerToken string) (Identity, error)
}

// CredentialDirectory maps (tenant, capability) to live endpoint
// credentials. Absence is an expected return value, not an error.
type CredentialDirectory interface {
	Lookup(ctx context.Context, tenantID, capabilityID string) (Binding, bool, error)
}

// CheckpointStore persists versioned thread snapshots keyed by
// (tenant, thread). Every query is scoped by tenant id; implementations must
// never answer an unscoped read.
//
// Put is an optimistic append: it fails with ErrConflict when
// expectedVersion does not match the stored latest version, forcing the
// caller to reload rather than silently overwrite a concurrent update.
type CheckpointStore interface {
	Get(ctx context.Context, tenantID, threadID string) (*Checkpoint, error)
	Put(ctx context.Context, tenantID, threadID string, expectedVersion int, cp *Checkpoint) error
	List(ctx context.Context, tenantID string) ([]*Checkpoint, error)
}
