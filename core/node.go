package core

import "context"

// Outcome represents the result of a single node step. Concrete outcome
// types implement the unexported isOutcome marker enabling a closed set.
type Outcome interface{ isOutcome() }

// StepResult completes the current turn with messages to append.
type StepResult struct {
	Messages []Message
}

// isOutcome implements the Outcome interface for StepResult.
func (StepResult) isOutcome() {}

// Handoff transfers control to another node. An empty Next re-enters routing
// so the classifier picks the next node. Messages are appended before the
// transfer.
type Handoff struct {
	Next     string
	Messages []Message
}

// isOutcome implements the Outcome interface for Handoff.
func (Handoff) isOutcome() {}

// SuspendRequest suspends the thread until a human resume decision arrives
// for the carried approval.
type SuspendRequest struct {
	Approval PendingApproval
}

// isOutcome implements the Outcome interface for SuspendRequest.
func (SuspendRequest) isOutcome() {}

// NodeInput carries everything a node step may consume. Decision and
// Approval are non-nil only on the first dispatch after a resume, with the
// consumed approval and the human decision folded in.
type NodeInput struct {
	Messages []Message
	Exec     *ExecutionContext
	Decision *ResumeDecision
	Approval *PendingApproval
}

// Node is a specialist capability unit invoked by the supervisor. A node
// consumes the conversation and the request-scoped execution context and
// returns exactly one outcome. Nodes never hold a raw persistence handle;
// all durable effects flow through the outcomes they return.
type Node interface {
	Name() string
	Description() string
	RequiredCapabilities() []string
	Step(ctx context.Context, in NodeInput) (Outcome, error)
}

// NodeInfo carries the identifying details of a registered node that the
// classifier sees when producing a routing decision.
type NodeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
