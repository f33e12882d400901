// Package approval implements the propose → suspend → resume → execute
// pattern for irreversible actions. An approval Node proposes a structured
// action, suspends the thread behind a pending approval, and on resume
// either executes (accept), revalidates and executes replacement args
// (edit), records a skip (ignore), or folds the caller's reply back into the
// conversation (respond).
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/logging"
)

// DefaultExecuteTimeout bounds the external action execution. The suspended
// window itself carries no timeout; humans answer on their own schedule.
const DefaultExecuteTimeout = 30 * time.Second

// Definition describes the guarded action.
type Definition struct {
	// Action is the identifier recorded in the ActionRequest, e.g.
	// "create_event".
	Action string

	// Propose extracts the structured action arguments from the
	// conversation and returns them with a human-readable description of
	// what will happen. An error aborts the step without suspending.
	Propose func(ctx context.Context, in core.NodeInput) (args map[string]any, description string, err error)

	// Validate checks action arguments. It runs on every proposal and
	// again, with identical constraints, on every edit decision. Nil
	// means no validation.
	Validate func(ctx context.Context, args map[string]any) error

	// Execute performs the irreversible action and returns the text
	// reported back to the conversation.
	Execute func(ctx context.Context, exec *core.ExecutionContext, args map[string]any) (string, error)
}

// Options configure an approval Node.
type Options struct {
	// Description of the node shown to the classifier.
	Description string
	// RequiredCapabilities the execution context must carry before the
	// node is dispatched.
	RequiredCapabilities []string
	// Allowed restricts the resume decisions offered on the pending
	// approval. Empty means all four.
	Allowed []core.ResponseType
	// ExecuteTimeout bounds the Execute call.
	ExecuteTimeout time.Duration
	// Logger for workflow diagnostics.
	Logger logging.Logger
}

// Node is a core.Node wrapping one guarded action.
type Node struct {
	name           string
	description    string
	required       []string
	allowed        []core.ResponseType
	executeTimeout time.Duration
	def            Definition
	logger         logging.Logger
}

// New constructs an approval node for the given definition.
func New(name string, def Definition, optFns ...func(o *Options)) *Node {
	opts := Options{
		Description:    fmt.Sprintf("Proposes and executes the %s action after human approval", def.Action),
		ExecuteTimeout: DefaultExecuteTimeout,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Node{
		name:           name,
		description:    opts.Description,
		required:       opts.RequiredCapabilities,
		allowed:        opts.Allowed,
		executeTimeout: opts.ExecuteTimeout,
		def:            def,
		logger:         logging.OrNoOp(opts.Logger),
	}
}

// Name returns the node's registered name.
func (n *Node) Name() string { return n.name }

// Description returns what the node does, for routing.
func (n *Node) Description() string { return n.description }

// RequiredCapabilities returns the capability ids the node dispatches with.
func (n *Node) RequiredCapabilities() []string { return n.required }

// Step proposes the action on a fresh dispatch and applies the human
// decision on a resume dispatch.
func (n *Node) Step(ctx context.Context, in core.NodeInput) (core.Outcome, error) {
	if in.Decision == nil {
		return n.propose(ctx, in)
	}
	return n.resume(ctx, in)
}

func (n *Node) propose(ctx context.Context, in core.NodeInput) (core.Outcome, error) {
	args, description, err := n.def.Propose(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("propose %s: %w", n.def.Action, err)
	}
	if n.def.Validate != nil {
		if err := n.def.Validate(ctx, args); err != nil {
			return nil, fmt.Errorf("validate %s proposal: %w", n.def.Action, err)
		}
	}

	ap := core.NewPendingApproval(
		n.name,
		core.ActionRequest{Action: n.def.Action, Args: args},
		description,
		n.allowed...,
	)

	n.logger.Info("action proposed, suspending for approval",
		"node", n.name, "action", n.def.Action, "interrupt_id", ap.ID)

	return core.SuspendRequest{Approval: ap}, nil
}

func (n *Node) resume(ctx context.Context, in core.NodeInput) (core.Outcome, error) {
	if in.Approval == nil {
		return nil, fmt.Errorf("resume %s without consumed approval: %w", n.def.Action, core.ErrInvalidResume)
	}

	switch in.Decision.Type {
	case core.ResponseAccept:
		return n.execute(ctx, in.Exec, in.Approval.Action.Args)

	case core.ResponseEdit:
		// Edited args go through the same validation as the original
		// proposal; a failing edit leaves the approval outstanding.
		if n.def.Validate != nil {
			if err := n.def.Validate(ctx, in.Decision.Args); err != nil {
				return nil, fmt.Errorf("revalidate edited %s args: %v: %w", n.def.Action, err, core.ErrInvalidResume)
			}
		}
		return n.execute(ctx, in.Exec, in.Decision.Args)

	case core.ResponseIgnore:
		n.logger.Info("action skipped by decision", "node", n.name, "action", n.def.Action)
		msg := core.NewAssistantMessage(fmt.Sprintf("The %s action was skipped at your request.", n.def.Action))
		return core.Handoff{Messages: []core.Message{msg}}, nil

	case core.ResponseRespond:
		msg := core.NewUserMessage(in.Decision.Reply)
		return core.Handoff{Messages: []core.Message{msg}}, nil

	default:
		return nil, fmt.Errorf("resume %s with decision %q: %w", n.def.Action, in.Decision.Type, core.ErrInvalidResume)
	}
}

func (n *Node) execute(ctx context.Context, exec *core.ExecutionContext, args map[string]any) (core.Outcome, error) {
	ectx, cancel := context.WithTimeout(ctx, n.executeTimeout)
	defer cancel()

	start := time.Now()
	result, err := n.def.Execute(ectx, exec, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("execute %s: %w", n.def.Action, core.ErrToolTimeout)
		}
		return nil, fmt.Errorf("execute %s: %w", n.def.Action, err)
	}

	n.logger.Info("action executed", "node", n.name, "action", n.def.Action, "duration", time.Since(start))

	return core.StepResult{Messages: []core.Message{core.NewAssistantMessage(result)}}, nil
}
