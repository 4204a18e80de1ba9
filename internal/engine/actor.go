package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/intake"
	"github.com/roach88/caseintake/internal/state"
)

// actor owns the folded state of one case. All fields except mailbox are
// touched only by the actor goroutine.
type actor struct {
	caseID  string
	mailbox *mailbox
	state   state.CaseState
	loaded  bool
}

func (e *Engine) run(a *actor) {
	defer e.wg.Done()
	defer e.metrics.ActorStopped()

	for {
		req, ok := a.mailbox.Next()
		if !ok {
			return
		}
		req.reply <- e.process(a, req)
	}
}

func (e *Engine) process(a *actor, req request) reply {
	if !req.status.CompareAndSwap(requestQueued, requestStarted) {
		return reply{err: req.ctx.Err()}
	}
	if err := req.ctx.Err(); err != nil {
		return reply{err: err}
	}

	kind := "State"
	if req.cmd != nil {
		kind = req.cmd.CommandKind()
	}
	fail := func(code DispatchErrorCode, err error) reply {
		// Forget the cached state; the next command reloads from the log.
		a.state = state.CaseState{}
		a.loaded = false
		e.metrics.IncrementCommand(kind, "error")
		e.logger.Error("command failed",
			zap.String("case_id", a.caseID),
			zap.String("command", kind),
			zap.String("correlation_id", req.correlationID),
			zap.String("code", string(code)),
			zap.Error(err),
		)
		return reply{err: &DispatchError{
			Code:          code,
			CaseID:        a.caseID,
			Command:       kind,
			CorrelationID: req.correlationID,
			Err:           err,
		}}
	}

	if !a.loaded {
		envs, err := e.log.Load(req.ctx, a.caseID)
		if err != nil {
			return fail(ErrCodeLoadFailed, err)
		}
		history, err := event.DecodeAll(envs)
		if err != nil {
			return fail(ErrCodeDecodeFailed, err)
		}
		a.state = state.Fold(state.CaseState{}, history)
		a.loaded = true
		e.logger.Debug("case loaded",
			zap.String("case_id", a.caseID),
			zap.Int("events", len(history)),
			zap.Int64("version", a.state.Version),
		)
	}

	if req.cmd == nil {
		return reply{result: Result{CaseID: a.caseID, State: a.state}}
	}

	start := time.Now()
	events, next := intake.Handle(a.state, req.cmd, e.deps)
	res := Result{
		CorrelationID: req.correlationID,
		CaseID:        a.caseID,
		Command:       kind,
		Events:        events,
		State:         a.state,
	}

	if len(events) == 0 {
		e.metrics.IncrementCommand(kind, "noop")
		e.metrics.ObserveDispatch(kind, time.Since(start))
		e.logger.Debug("command decided no events",
			zap.String("case_id", a.caseID),
			zap.String("command", kind),
			zap.String("correlation_id", req.correlationID),
		)
		return reply{result: res}
	}

	envs, err := event.EncodeAll(a.state.Version, events)
	if err != nil {
		return fail(ErrCodeEncodeFailed, err)
	}
	if err := e.log.Append(req.ctx, a.caseID, a.state.Version, envs); err != nil {
		return fail(ErrCodeAppendFailed, err)
	}

	a.state = next
	res.Envelopes = envs
	res.State = next

	kinds := make([]string, len(events))
	counts := make(map[string]int, len(events))
	for i, ev := range events {
		kinds[i] = string(ev.Kind())
		counts[kinds[i]]++
	}
	for k, n := range counts {
		e.metrics.AddEvents(k, n)
	}
	e.metrics.IncrementCommand(kind, "ok")
	e.metrics.ObserveDispatch(kind, time.Since(start))
	e.logger.Info("command handled",
		zap.String("case_id", a.caseID),
		zap.String("command", kind),
		zap.String("correlation_id", req.correlationID),
		zap.Strings("events", kinds),
		zap.Int64("version", next.Version),
		zap.Duration("queued", start.Sub(req.enqueued)),
	)

	return reply{result: res}
}
