package core

import (
	"context"
	"time"
)

// RoutingDecision is the supervisor's choice of which node handles the next
// step. Decisions are recorded in the checkpoint trace. An empty Next with a
// non-empty DirectResponse completes the turn without dispatching.
type RoutingDecision struct {
	Next            string    `json:"next_capability_id"`
	Rationale       string    `json:"rationale,omitempty"`
	RequiredToolIDs []string  `json:"required_tool_ids,omitempty"`
	DirectResponse  string    `json:"direct_response,omitempty"`
	DecidedAt       time.Time `json:"decided_at"`
}

// Classifier analyzes the conversation and the registered node catalog and
// produces a routing decision. Intent analysis itself is an external
// reasoning capability; the engine treats it as a black box.
type Classifier interface {
	Classify(ctx context.Context, messages []Message, nodes []NodeInfo) (RoutingDecision, error)
}

// ClassifierFunc adapts an ordinary function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, messages []Message, nodes []NodeInfo) (RoutingDecision, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, messages []Message, nodes []NodeInfo) (RoutingDecision, error) {
	return f(ctx, messages, nodes)
}
