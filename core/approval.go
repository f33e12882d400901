package core

import (
	"maps"
	"time"
)

// ResponseType enumerates the decisions a human may take on a pending
// approval.
type ResponseType string

const (
	// ResponseAccept executes the action with the original proposed args.
	ResponseAccept ResponseType = "accept"
	// ResponseEdit executes the action with caller-supplied replacement
	// args, revalidated against the same constraints as the proposal.
	ResponseEdit ResponseType = "edit"
	// ResponseIgnore skips execution and records that the action was
	// skipped.
	ResponseIgnore ResponseType = "ignore"
	// ResponseRespond folds the caller's payload back into the
	// conversation as a new user message without executing the action.
	ResponseRespond ResponseType = "respond"
)

// AllResponseTypes is the default allowed set for a pending approval.
func AllResponseTypes() []ResponseType {
	return []ResponseType{ResponseAccept, ResponseEdit, ResponseIgnore, ResponseRespond}
}

// ActionRequest describes the irreversible action a node proposed to execute.
type ActionRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// PendingApproval is a durable marker that execution is suspended awaiting a
// human decision. Exactly one may be outstanding per thread; it is consumed
// when a matching resume decision is applied.
type PendingApproval struct {
	ID          string         `json:"id"`
	NodeID      string         `json:"node_id"`
	Action      ActionRequest  `json:"action_request"`
	Allowed     []ResponseType `json:"allowed_responses"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewPendingApproval creates an approval marker authored by nodeID. An empty
// allowed set defaults to all response types.
func NewPendingApproval(nodeID string, action ActionRequest, description string, allowed ...ResponseType) PendingApproval {
	if len(allowed) == 0 {
		allowed = AllResponseTypes()
	}
	return PendingApproval{
		ID:          NewID(),
		NodeID:      nodeID,
		Action:      action,
		Allowed:     allowed,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// Allows reports whether the given decision type is in the allowed set.
func (p *PendingApproval) Allows(t ResponseType) bool {
	for _, a := range p.Allowed {
		if a == t {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe for independent mutation.
func (p *PendingApproval) Clone() *PendingApproval {
	c := *p
	c.Allowed = append([]ResponseType(nil), p.Allowed...)
	if p.Action.Args != nil {
		c.Action.Args = make(map[string]any, len(p.Action.Args))
		maps.Copy(c.Action.Args, p.Action.Args)
	}
	return &c
}

// ResumeDecision is the human decision supplied to the resume entry point.
// Args carries replacement arguments for edit; Reply carries the free-form
// payload for respond.
type ResumeDecision struct {
	Type  ResponseType   `json:"type"`
	Args  map[string]any `json:"args,omitempty"`
	Reply string         `json:"reply,omitempty"`
}
