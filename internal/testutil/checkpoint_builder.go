package testutil

import (
	"github.com/hupe1980/tenantmesh/core"
)

// CheckpointBuilder helps construct checkpoints with fluent chaining for
// tests. Example:
//
//	cp := NewCheckpointBuilder("tenant-a", "thread-1").
//		Version(3).
//		Message(core.NewUserMessage("hi")).
//		Build()
type CheckpointBuilder struct {
	tenantID string
	threadID string
	version  int
	state    core.ThreadState
	messages []core.Message
	pending  *core.PendingApproval
}

// NewCheckpointBuilder creates a builder for a checkpoint owned by tenantID.
func NewCheckpointBuilder(tenantID, threadID string) *CheckpointBuilder {
	return &CheckpointBuilder{tenantID: tenantID, threadID: threadID, version: 1, state: core.StateCompleted}
}

// Version sets the snapshot version (chainable).
func (b *CheckpointBuilder) Version(v int) *CheckpointBuilder {
	b.version = v
	return b
}

// State sets the persisted thread state (chainable).
func (b *CheckpointBuilder) State(s core.ThreadState) *CheckpointBuilder {
	b.state = s
	return b
}

// Message appends a message to the history (chainable).
func (b *CheckpointBuilder) Message(m core.Message) *CheckpointBuilder {
	b.messages = append(b.messages, m)
	return b
}

// Pending installs an outstanding approval and moves the state to suspended
// (chainable).
func (b *CheckpointBuilder) Pending(p core.PendingApproval) *CheckpointBuilder {
	b.pending = &p
	b.state = core.StateSuspended
	return b
}

// Build returns the assembled checkpoint.
func (b *CheckpointBuilder) Build() *core.Checkpoint {
	cp := core.NewCheckpoint(b.tenantID, b.threadID)
	cp.Version = b.version
	cp.State = b.state
	cp.Messages = append(cp.Messages, b.messages...)
	cp.Pending = b.pending
	return cp
}
