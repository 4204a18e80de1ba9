package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/engine"
	"github.com/roach88/caseintake/internal/harness"
	"github.com/roach88/caseintake/internal/intake"
	"github.com/roach88/caseintake/internal/testutil"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Scenario string

	// IDs overrides the correlation ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator
}

// StepOutcome is the result of one dispatched scenario step.
type StepOutcome struct {
	Step          int      `json:"step"`
	Command       string   `json:"command"`
	CaseID        string   `json:"case_id"`
	CorrelationID string   `json:"correlation_id,omitempty"`
	Events        []string `json:"events"`
	Mismatch      string   `json:"mismatch,omitempty"`
}

// RunResult summarises a scenario dispatched into the case log.
type RunResult struct {
	Scenario string         `json:"scenario"`
	Steps    []StepOutcome  `json:"steps"`
	Events   int            `json:"events"`
	Cases    int            `json:"cases"`
	Commands map[string]int `json:"commands"`
	Pass     bool           `json:"pass"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch a scenario's commands into the case log",
		Long: `Dispatch the steps of a scenario file through the engine into the case log.

Steps for different cases run in parallel; steps for the same case run in
file order. A step with an "at" timestamp waits for every earlier step and
moves the clock before it is dispatched.

Exit codes:
  0 - All commands dispatched and every step expectation held
  1 - A step emitted events other than the ones it expected
  2 - Command error (unreadable scenario, database, rules)

Examples:
  caseintake run --scenario ./scenarios/concrete.yaml
  caseintake run --scenario ./scenarios/concrete.yaml --db /tmp/intake.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "scenario YAML file (required)")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runScenario(opts *RunOptions, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	start := scenario.Now
	if start.IsZero() {
		start = time.Now().UTC()
	}
	clock := testutil.NewClock(start)

	sess, err := openSession(opts.RootOptions, sessionConfig{
		database:      opts.Database,
		rules:         scenario.Rules,
		referenceData: scenario.ReferenceData,
		now:           clock.Now,
		ids:           opts.IDs,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	result := RunResult{Scenario: scenario.Name, Steps: make([]StepOutcome, 0, len(scenario.Steps)), Pass: true}
	cases := make(map[string]bool)

	for _, batch := range batchSteps(scenario.Steps) {
		if at := scenario.Steps[batch[0]].At; at != nil {
			clock.Set(*at)
		}
		cmds := make([]intake.Command, len(batch))
		for i, idx := range batch {
			c, err := scenario.Steps[idx].Decode()
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("step %d", idx+1), err)
			}
			cmds[i] = c
			cases[c.TargetCase()] = true
		}

		results, err := sess.engine.DispatchAll(ctx, cmds)
		if err != nil {
			return WrapExitError(ExitCommandError, "dispatch failed", err)
		}
		for i, res := range results {
			outcome := stepOutcome(batch[i]+1, scenario.Steps[batch[i]], res)
			if outcome.Mismatch != "" {
				result.Pass = false
			}
			result.Events += len(outcome.Events)
			result.Steps = append(result.Steps, outcome)
		}
	}
	result.Cases = len(cases)
	result.Commands = sess.commandOutcomes()

	sess.logger.Info("scenario dispatched",
		zap.String("scenario", scenario.Name),
		zap.Int("steps", len(result.Steps)),
		zap.Int("events", result.Events),
		zap.Int("cases", result.Cases),
	)

	f := opts.formatter(cmd)
	if f.Format == "json" {
		if result.Pass {
			return f.Success(result)
		}
		if err := f.Failure(ErrCodeExpectation, "step expectations failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "step expectations failed")
	}
	return outputRunText(f.Writer, result)
}

// batchSteps groups step indexes so that each step carrying a timestamp
// starts a new batch.
func batchSteps(steps []harness.Step) [][]int {
	var batches [][]int
	for i, step := range steps {
		if step.At != nil || len(batches) == 0 {
			batches = append(batches, nil)
		}
		batches[len(batches)-1] = append(batches[len(batches)-1], i)
	}
	return batches
}

func stepOutcome(n int, step harness.Step, res engine.Result) StepOutcome {
	got := make([]string, 0, len(res.Events))
	for _, ev := range res.Events {
		got = append(got, string(ev.Kind()))
	}
	out := StepOutcome{
		Step:          n,
		Command:       res.Command,
		CaseID:        res.CaseID,
		CorrelationID: res.CorrelationID,
		Events:        got,
	}
	switch {
	case step.ExpectNone && len(got) > 0:
		out.Mismatch = fmt.Sprintf("expected no events, got %v", got)
	case len(step.Expect) > 0 && !slices.Equal(step.Expect, got):
		out.Mismatch = fmt.Sprintf("expected %v, got %v", step.Expect, got)
	}
	return out
}

func outputRunText(w io.Writer, result RunResult) error {
	fmt.Fprintf(w, "Scenario: %s\n", result.Scenario)
	for _, s := range result.Steps {
		events := "(no events)"
		if len(s.Events) > 0 {
			events = strings.Join(s.Events, ", ")
		}
		fmt.Fprintf(w, "  [%d] %s %s -> %s\n", s.Step, s.Command, s.CaseID, events)
		if s.Mismatch != "" {
			fmt.Fprintf(w, "      ✗ %s\n", s.Mismatch)
		}
	}
	fmt.Fprintf(w, "Dispatched %d command(s) across %d case(s): %d event(s)\n",
		len(result.Steps), result.Cases, result.Events)

	if result.Pass {
		return nil
	}
	fmt.Fprintln(w, "✗ Step expectations failed")
	return NewExitError(ExitFailure, "step expectations failed")
}
