package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/tenantmesh/core"
	"github.com/hupe1980/tenantmesh/isolation"
	"github.com/hupe1980/tenantmesh/logging"
	"github.com/hupe1980/tenantmesh/resolver"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// MaxHops limits routing/dispatch cycles per turn.
	MaxHops int
	// ConflictRetries caps how often a turn is replayed after a
	// checkpoint version conflict before the conflict surfaces.
	ConflictRetries int
	// Logger for supervisor diagnostics.
	Logger logging.Logger
}

// Turn summarizes one settled user turn: the new checkpoint version, the
// messages appended during the turn and, when suspended, the pending
// approval awaiting a decision.
type Turn struct {
	ThreadID string                 `json:"thread_id"`
	TenantID string                 `json:"tenant_id"`
	Version  int                    `json:"version"`
	State    core.ThreadState       `json:"state"`
	Messages []core.Message         `json:"messages"`
	Pending  *core.PendingApproval  `json:"pending_approval,omitempty"`
	Trace    []core.RoutingDecision `json:"routing_trace,omitempty"`
}

// Supervisor coordinates turn execution: it resolves the request-scoped
// execution context, selects capability nodes via the classifier, folds node
// outcomes into a new checkpoint version and persists it through the
// isolation filter. Public methods are safe for concurrent use; racing turns
// on the same thread are serialized by the optimistic version check.
type Supervisor struct {
	resolver   *resolver.Resolver
	filter     *isolation.Filter
	classifier core.Classifier

	maxHops         int
	conflictRetries int
	logger          logging.Logger

	mu    sync.RWMutex
	nodes map[string]core.Node
}

// New constructs a Supervisor with optional overrides.
func New(res *resolver.Resolver, filter *isolation.Filter, classifier core.Classifier, optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		MaxHops:         8,
		ConflictRetries: 2,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Supervisor{
		resolver:        res,
		filter:          filter,
		classifier:      classifier,
		maxHops:         opts.MaxHops,
		conflictRetries: opts.ConflictRetries,
		logger:          logging.OrNoOp(opts.Logger),
		nodes:           make(map[string]core.Node),
	}
}

// Register adds a capability node, replacing any node with the same name.
func (s *Supervisor) Register(n core.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.Name()] = n
}

// NodeInfos returns the registered node catalog sorted by name.
func (s *Supervisor) NodeInfos() []core.NodeInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]core.NodeInfo, 0, len(s.nodes))
	for _, n := range s.nodes {
		infos = append(infos, core.NodeInfo{Name: n.Name(), Description: n.Description()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Supervisor) node(name string) (core.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	return n, ok
}

// SendMessage runs one user turn: verify the caller, resolve credentials,
// load or create the thread, route and dispatch until the turn settles, then
// append a new checkpoint version. A thread awaiting approval rejects new
// messages with core.ErrThreadSuspended.
func (s *Supervisor) SendMessage(ctx context.Context, bearerToken, threadID, text string) (*Turn, error) {
	exec, err := s.resolver.Resolve(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	scoped, err := s.filter.Scope(core.Identity{TenantID: exec.TenantID})
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, scoped, threadID, true, func(ctx context.Context, prev *core.Checkpoint) (*core.Checkpoint, []core.Message, error) {
		if prev.Pending != nil {
			return nil, nil, fmt.Errorf("thread %s awaits decision on interrupt %s: %w", prev.ThreadID, prev.Pending.ID, core.ErrThreadSuspended)
		}

		next := prev.Next()
		user := core.NewUserMessage(text)
		next.AppendMessages(user)
		appended := []core.Message{user}

		if err := s.runTurn(ctx, exec, next, "", nil, nil, &appended); err != nil {
			return nil, nil, err
		}
		return next, appended, nil
	})
}

// Resume applies a human decision to the thread's outstanding approval and
// re-enters dispatching with the decision folded into the node input. A
// decision type outside the approval's allowed set, or a resume without an
// outstanding approval, fails with core.ErrInvalidResume and leaves the
// thread unchanged.
func (s *Supervisor) Resume(ctx context.Context, bearerToken, threadID string, decision core.ResumeDecision) (*Turn, error) {
	exec, err := s.resolver.Resolve(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	scoped, err := s.filter.Scope(core.Identity{TenantID: exec.TenantID})
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, scoped, threadID, false, func(ctx context.Context, prev *core.Checkpoint) (*core.Checkpoint, []core.Message, error) {
		if prev.Pending == nil {
			return nil, nil, fmt.Errorf("thread %s has no pending approval: %w", threadID, core.ErrInvalidResume)
		}
		if !prev.Pending.Allows(decision.Type) {
			return nil, nil, fmt.Errorf("decision %q not allowed for interrupt %s: %w", decision.Type, prev.Pending.ID, core.ErrInvalidResume)
		}

		next := prev.Next()
		consumed := next.ConsumePending()
		next.State = core.StateIdle

		var appended []core.Message
		if err := s.runTurn(ctx, exec, next, consumed.NodeID, &decision, consumed, &appended); err != nil {
			return nil, nil, err
		}
		return next, appended, nil
	})
}

// commit loads the latest checkpoint, builds its successor via build, and
// appends it with optimistic concurrency. A version conflict reloads and
// replays the turn up to the configured retry cap; the loser of a race never
// applies its change on top of stale state.
func (s *Supervisor) commit(
	ctx context.Context,
	scoped *isolation.ScopedStore,
	threadID string,
	allowCreate bool,
	build func(ctx context.Context, prev *core.Checkpoint) (*core.Checkpoint, []core.Message, error),
) (*Turn, error) {
	var lastErr error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		prev, err := scoped.Get(ctx, threadID)
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) || !allowCreate {
				return nil, err
			}
			prev = scoped.NewThread(threadID)
		}
		traceStart := len(prev.Trace)

		next, appended, err := build(ctx, prev)
		if err != nil {
			return nil, err
		}

		committed, err := scoped.Append(ctx, prev, next)
		if err != nil {
			if errors.Is(err, core.ErrConflict) {
				lastErr = err
				s.logger.Warn("checkpoint append conflicted, reloading",
					"tenant_id", scoped.TenantID(), "thread_id", threadID, "attempt", attempt+1)
				continue
			}
			return nil, err
		}

		s.logger.Info("turn settled",
			"tenant_id", committed.TenantID,
			"thread_id", committed.ThreadID,
			"version", committed.Version,
			"state", string(committed.State))

		return &Turn{
			ThreadID: committed.ThreadID,
			TenantID: committed.TenantID,
			Version:  committed.Version,
			State:    committed.State,
			Messages: appended,
			Pending:  committed.Pending,
			Trace:    committed.Trace[traceStart:],
		}, nil
	}
	return nil, lastErr
}

// runTurn drives the in-memory successor checkpoint through the routing and
// dispatching states until the turn settles. Node failures abort before any
// mutation is persisted; only a fully-formed outcome is ever folded in.
func (s *Supervisor) runTurn(
	ctx context.Context,
	exec *core.ExecutionContext,
	cp *core.Checkpoint,
	forced string,
	decision *core.ResumeDecision,
	consumed *core.PendingApproval,
	appended *[]core.Message,
) error {
	hops := NewHopLimiter(s.maxHops)

	for {
		if err := hops.Increment(); err != nil {
			s.logger.Warn("routing hop budget exhausted", "thread_id", cp.ThreadID, "hops", hops.Count())
			s.concludeTurn(cp, appended, core.StateFailed,
				"I could not settle on a specialist for this request. Please rephrase and try again.")
			return nil
		}

		dec, err := s.route(ctx, cp, forced)
		if err != nil {
			return err
		}
		forced = ""
		cp.Trace = append(cp.Trace, dec)

		if dec.Next == "" {
			text := dec.DirectResponse
			if text == "" {
				text = dec.Rationale
			}
			s.concludeTurn(cp, appended, core.StateCompleted, text)
			return nil
		}

		node, ok := s.node(dec.Next)
		if !ok {
			s.logger.Warn("routing decision names unknown node", "thread_id", cp.ThreadID, "node", dec.Next)
			s.concludeTurn(cp, appended, core.StateCompleted,
				fmt.Sprintf("The %q capability is not available for your account right now.", dec.Next))
			return nil
		}

		required := append(append([]string{}, dec.RequiredToolIDs...), node.RequiredCapabilities()...)
		if missing := exec.Missing(required); len(missing) > 0 {
			s.logger.Info("degrading turn, capabilities unavailable",
				"thread_id", cp.ThreadID, "node", node.Name(), "missing", strings.Join(missing, ","))
			s.concludeTurn(cp, appended, core.StateCompleted,
				fmt.Sprintf("This request needs capabilities that are not enabled for your account: %s.", strings.Join(missing, ", ")))
			return nil
		}

		in := core.NodeInput{
			Messages: historySnapshot(cp),
			Exec:     exec,
			Decision: decision,
			Approval: consumed,
		}
		// Only the first dispatch after a resume sees the decision.
		decision, consumed = nil, nil

		out, err := node.Step(ctx, in)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("node %s timed out: %w", node.Name(), core.ErrToolTimeout)
			}
			return fmt.Errorf("node %s: %w", node.Name(), err)
		}

		switch o := out.(type) {
		case core.StepResult:
			cp.AppendMessages(o.Messages...)
			*appended = append(*appended, o.Messages...)
			cp.State = core.StateCompleted
			return nil

		case core.Handoff:
			cp.AppendMessages(o.Messages...)
			*appended = append(*appended, o.Messages...)
			forced = o.Next
			s.logger.Debug("node handed off", "thread_id", cp.ThreadID, "from", node.Name(), "to", o.Next)

		case core.SuspendRequest:
			ap := o.Approval
			if ap.ID == "" {
				ap = core.NewPendingApproval(node.Name(), ap.Action, ap.Description, ap.Allowed...)
			}
			if ap.NodeID == "" {
				ap.NodeID = node.Name()
			}
			if err := cp.SetPending(&ap); err != nil {
				return err
			}
			s.logger.Info("turn suspended awaiting approval",
				"thread_id", cp.ThreadID, "node", node.Name(), "interrupt_id", ap.ID)
			return nil

		default:
			return fmt.Errorf("node %s returned unsupported outcome %T", node.Name(), out)
		}
	}
}

// route produces the next routing decision: a forced target (handoff or
// resume re-dispatch) bypasses the classifier.
func (s *Supervisor) route(ctx context.Context, cp *core.Checkpoint, forced string) (core.RoutingDecision, error) {
	if forced != "" {
		return core.RoutingDecision{Next: forced, Rationale: "handoff", DecidedAt: time.Now().UTC()}, nil
	}
	dec, err := s.classifier.Classify(ctx, historySnapshot(cp), s.NodeInfos())
	if err != nil {
		return core.RoutingDecision{}, fmt.Errorf("classify intent: %w", err)
	}
	if dec.DecidedAt.IsZero() {
		dec.DecidedAt = time.Now().UTC()
	}
	return dec, nil
}

func (s *Supervisor) concludeTurn(cp *core.Checkpoint, appended *[]core.Message, state core.ThreadState, text string) {
	msg := core.NewAssistantMessage(text)
	cp.AppendMessages(msg)
	*appended = append(*appended, msg)
	cp.State = state
}

// historySnapshot hands nodes and the classifier their own copy of the
// history so they cannot mutate the checkpoint under construction.
func historySnapshot(cp *core.Checkpoint) []core.Message {
	msgs := make([]core.Message, len(cp.Messages))
	copy(msgs, cp.Messages)
	return msgs
}
