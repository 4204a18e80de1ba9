package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/intake"
	"github.com/roach88/caseintake/internal/metrics"
	"github.com/roach88/caseintake/internal/state"
)

// History supplies the ordered log of a case.
type History interface {
	Load(ctx context.Context, caseID string) ([]event.Envelope, error)
}

// Log is the durable case log: the history source and the event sink.
// Implemented by *store.Store.
type Log interface {
	History
	Append(ctx context.Context, caseID string, expectedVersion int64, envs []event.Envelope) error
}

// IDGenerator generates correlation IDs for dispatched commands.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// Result is the outcome of one dispatched command.
type Result struct {
	CorrelationID string
	CaseID        string
	Command       string
	Events        []event.Event
	Envelopes     []event.Envelope
	// State is the case state after the command's events were folded.
	State state.CaseState
}

// Engine dispatches commands to per-case actors.
//
// Thread-safety model:
//   - Dispatch, DispatchAll, State: safe from any goroutine
//   - Stop: safe from any goroutine, idempotent
type Engine struct {
	log     Log
	deps    intake.Deps
	ids     IDGenerator
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	actors  map[string]*actor
	stopped bool
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink. Default: none.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIDGenerator sets the correlation ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// New creates an Engine over log. deps are passed unchanged to every
// intake decision.
func New(log Log, deps intake.Deps, opts ...Option) *Engine {
	e := &Engine{
		log:    log,
		deps:   deps,
		ids:    UUIDv7Generator{},
		logger: zap.NewNop(),
		actors: make(map[string]*actor),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch routes cmd to the actor of its case and waits for the outcome.
// A command that decides no events returns a Result with no events and a
// nil error. Cancelling ctx abandons a command still queued; once the actor
// has started it, Dispatch waits and returns its outcome.
func (e *Engine) Dispatch(ctx context.Context, cmd intake.Command) (Result, error) {
	if cmd == nil || cmd.TargetCase() == "" {
		return Result{}, ErrNoTargetCase
	}
	return e.send(ctx, cmd.TargetCase(), cmd)
}

// State returns the current folded state of caseID, loading it if needed.
func (e *Engine) State(ctx context.Context, caseID string) (state.CaseState, error) {
	if caseID == "" {
		return state.CaseState{}, ErrNoTargetCase
	}
	res, err := e.send(ctx, caseID, nil)
	if err != nil {
		return state.CaseState{}, err
	}
	return res.State, nil
}

func (e *Engine) send(ctx context.Context, caseID string, cmd intake.Command) (Result, error) {
	a, err := e.actorFor(caseID)
	if err != nil {
		return Result{}, err
	}

	req := request{
		ctx:      ctx,
		cmd:      cmd,
		enqueued: time.Now(),
		reply:    make(chan reply, 1),
		status:   new(atomic.Int32),
	}
	if cmd != nil {
		req.correlationID = e.ids.Generate()
	}
	if !a.mailbox.Enqueue(req) {
		return Result{}, ErrStopped
	}

	select {
	case <-ctx.Done():
		if req.status.CompareAndSwap(requestQueued, requestAbandoned) {
			return Result{}, ctx.Err()
		}
		// The actor already took the request and may persist its events;
		// report what it did rather than dropping it.
		r := <-req.reply
		return r.result, r.err
	case r := <-req.reply:
		return r.result, r.err
	}
}

// DispatchAll dispatches cmds, preserving their order within each case and
// running different cases in parallel. Results are returned in the order of
// cmds. The first error cancels commands not yet dispatched.
func (e *Engine) DispatchAll(ctx context.Context, cmds []intake.Command) ([]Result, error) {
	results := make([]Result, len(cmds))
	byCase := make(map[string][]int)
	var order []string
	for i, cmd := range cmds {
		if cmd == nil || cmd.TargetCase() == "" {
			return nil, fmt.Errorf("command %d: %w", i, ErrNoTargetCase)
		}
		id := cmd.TargetCase()
		if _, seen := byCase[id]; !seen {
			order = append(order, id)
		}
		byCase[id] = append(byCase[id], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, caseID := range order {
		indexes := byCase[caseID]
		g.Go(func() error {
			for _, i := range indexes {
				res, err := e.Dispatch(gctx, cmds[i])
				if err != nil {
					return fmt.Errorf("command %d (%s): %w", i, cmds[i].CommandKind(), err)
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Stop closes every mailbox and waits for the actors to drain.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	for _, a := range e.actors {
		a.mailbox.Close()
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("engine stopped")
}

// Cases returns the number of live actors.
func (e *Engine) Cases() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.actors)
}

func (e *Engine) actorFor(caseID string) (*actor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil, ErrStopped
	}
	if a, ok := e.actors[caseID]; ok {
		return a, nil
	}

	a := &actor{caseID: caseID, mailbox: newMailbox()}
	e.actors[caseID] = a
	e.wg.Add(1)
	e.metrics.ActorStarted()
	go e.run(a)
	return a, nil
}
