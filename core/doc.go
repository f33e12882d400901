// Package core provides the foundational domain types, interfaces and
// contracts used by TenantMesh. It defines the core abstractions for:
//
//   - Threads and Checkpoints (append-only, versioned conversation snapshots)
//   - Messages (immutable conversational records)
//   - Capability Nodes (units of work with a closed Outcome set)
//   - ExecutionContext (request-scoped, tenant-resolved credentials)
//   - PendingApproval / ResumeDecision (human-in-the-loop suspension)
//   - Pluggable contracts for identity verification, credential lookup and
//     checkpoint persistence
//
// The package intentionally keeps implementation concerns (persistence,
// routing, concrete nodes) out of scope, exposing small interfaces to enable
// custom backends and extensions.
package core
