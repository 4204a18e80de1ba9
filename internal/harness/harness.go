package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/engine"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/intake"
	"github.com/roach88/caseintake/internal/refdata"
	"github.com/roach88/caseintake/internal/rules"
	"github.com/roach88/caseintake/internal/store"
	"github.com/roach88/caseintake/internal/testutil"
)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.Clock
	logger *zap.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger routes engine logs to l. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario against a fresh in-memory case log.
//
// Execution flow:
//  1. Open an in-memory store and build deps from the scenario
//  2. Dispatch each step, recording appended events and step expectations
//  3. Rebuild every case from the log and replay-check it
//  4. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	now := scenario.Now
	if now.IsZero() {
		now = DefaultNow
	}
	h := &Harness{
		store:  st,
		clock:  testutil.NewClock(now),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	deps, err := Deps(scenario.Rules, scenario.ReferenceData, h.clock.Now)
	if err != nil {
		return nil, err
	}
	h.engine = engine.New(st, deps,
		engine.WithIDGenerator(testutil.NewSequentialIDs("cmd")),
		engine.WithLogger(h.logger),
	)
	defer h.engine.Stop()

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	if err := h.collectStates(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// Deps builds intake deps from optional rule-set and reference-data files.
func Deps(rulesPath, refdataPath string, now func() time.Time) (intake.Deps, error) {
	registry, err := rules.LoadRegistry(rulesPath)
	if err != nil {
		return intake.Deps{}, fmt.Errorf("load rules: %w", err)
	}

	reference := refdata.Default()
	if refdataPath != "" {
		reference, err = refdata.LoadFile(refdataPath)
		if err != nil {
			return intake.Deps{}, fmt.Errorf("load reference data: %w", err)
		}
	}

	return intake.Deps{
		Reference: reference,
		Rules:     registry,
		Enrichers: []domain.Enricher{refdata.CourtCentreEnricher()},
		Now:       now,
	}, nil
}

func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		n := i + 1
		if step.At != nil {
			h.clock.Set(*step.At)
		}

		cmd, err := step.Decode()
		if err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}

		res, err := h.engine.Dispatch(ctx, cmd)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", n, step.CommandKind, err)
		}

		got := make([]string, 0, len(res.Envelopes))
		for _, env := range res.Envelopes {
			payload, err := decodePayload(env)
			if err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			result.Trace = append(result.Trace, TraceEvent{
				Step:          n,
				Command:       res.Command,
				CorrelationID: res.CorrelationID,
				CaseID:        env.CaseID,
				Seq:           env.Seq,
				Kind:          string(env.Kind),
				Payload:       payload,
			})
			got = append(got, string(env.Kind))
		}

		switch {
		case step.ExpectNone && len(got) > 0:
			result.AddError(fmt.Sprintf("step %d (%s): expected no events, got %v", n, step.CommandKind, got))
		case len(step.Expect) > 0 && !slices.Equal(step.Expect, got):
			result.AddError(fmt.Sprintf("step %d (%s): expected %v, got %v", n, step.CommandKind, step.Expect, got))
		}
	}
	return nil
}

// collectStates rebuilds every case from the log and checks that replay
// agrees with itself.
func (h *Harness) collectStates(ctx context.Context, result *Result) error {
	cases, err := h.store.ListCases(ctx)
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}
	for _, id := range cases {
		report, err := engine.Verify(ctx, h.store, id)
		if err != nil {
			return err
		}
		if !report.Deterministic {
			result.AddError(fmt.Sprintf("case %s: replay is not deterministic (version %d, %d events, gaps %v)",
				id, report.Version, report.Events, report.Gaps))
		}
		s, err := engine.Rebuild(ctx, h.store, id)
		if err != nil {
			return err
		}
		result.States[id] = s
	}
	return nil
}

func decodePayload(env event.Envelope) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return payload, nil
}
