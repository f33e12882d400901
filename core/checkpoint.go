package core

import (
	"fmt"
	"time"
)

// ThreadState is the persisted state of a thread as of its latest checkpoint.
type ThreadState string

const (
	// StateIdle means no step is active; a new message opens a turn.
	StateIdle ThreadState = "idle"
	// StateSuspended means a pending approval is outstanding; only a
	// matching resume decision advances the thread.
	StateSuspended ThreadState = "suspended"
	// StateCompleted means the last user turn finished normally.
	StateCompleted ThreadState = "completed"
	// StateFailed means the last user turn terminated abnormally.
	StateFailed ThreadState = "failed"
)

// Checkpoint is an immutable, versioned snapshot of a thread. A new version
// is appended after every completed step or suspension; snapshots are never
// mutated in place, so concurrent or retried requests detect staleness via
// Version.
//
// TenantID is stamped once at creation from the verified identity and never
// changes for the life of the thread.
type Checkpoint struct {
	ThreadID  string            `json:"thread_id"`
	TenantID  string            `json:"tenant_id"`
	Version   int               `json:"version"`
	State     ThreadState       `json:"state"`
	Messages  []Message         `json:"messages"`
	Pending   *PendingApproval  `json:"pending_approval,omitempty"`
	Trace     []RoutingDecision `json:"routing_trace,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewCheckpoint creates the genesis snapshot for a thread. Version 0 is
// never persisted; the first append produces version 1.
func NewCheckpoint(tenantID, threadID string) *Checkpoint {
	return &Checkpoint{
		ThreadID:  threadID,
		TenantID:  tenantID,
		Version:   0,
		State:     StateIdle,
		Messages:  []Message{},
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the snapshot safe for independent mutation.
func (c *Checkpoint) Clone() *Checkpoint {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	clone.Trace = make([]RoutingDecision, len(c.Trace))
	copy(clone.Trace, c.Trace)
	if c.Pending != nil {
		clone.Pending = c.Pending.Clone()
	}
	return &clone
}

// Next derives the successor snapshot: a deep copy with the version bumped
// and a fresh creation timestamp. The receiver is left untouched.
func (c *Checkpoint) Next() *Checkpoint {
	n := c.Clone()
	n.Version = c.Version + 1
	n.State = StateIdle
	n.CreatedAt = time.Now().UTC()
	return n
}

// AppendMessages adds messages to the snapshot history.
func (c *Checkpoint) AppendMessages(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// SetPending installs a pending approval and moves the thread to the
// suspended state. Installing a second approval while one is outstanding
// fails with ErrApprovalOutstanding.
func (c *Checkpoint) SetPending(p *PendingApproval) error {
	if c.Pending != nil {
		return fmt.Errorf("thread %s interrupt %s: %w", c.ThreadID, c.Pending.ID, ErrApprovalOutstanding)
	}
	c.Pending = p
	c.State = StateSuspended
	return nil
}

// ConsumePending removes and returns the outstanding approval, or nil if
// none exists.
func (c *Checkpoint) ConsumePending() *PendingApproval {
	p := c.Pending
	c.Pending = nil
	return p
}
