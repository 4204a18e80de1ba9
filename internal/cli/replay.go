package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/caseintake/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database    string
	CaseID      string // optional - specific case only
	Parallelism int
}

// ReplayCaseResult holds the replay result for a single case.
type ReplayCaseResult struct {
	CaseID        string  `json:"case_id"`
	Events        int     `json:"events"`
	Version       int64   `json:"version"`
	Gaps          []int64 `json:"gaps,omitempty"`
	Deterministic bool    `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Cases            []ReplayCaseResult `json:"cases"`
	TotalCases       int                `json:"total_cases"`
	AllDeterministic bool               `json:"all_deterministic"`
	// Kinds counts stored events by kind. Set only for a full replay.
	Kinds map[string]int64 `json:"kinds,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the case log and verify determinism",
		Long: `Rebuild every case from the case log and verify the fold is deterministic.

Each case is folded twice, once in a single pass and once event by event,
and the two states are compared. The sequence numbers are checked for gaps.
Cases are replayed in parallel.

Exit codes:
  0 - All cases are deterministic
  1 - Determinism verification failed
  2 - Command error (database not found, etc.)

Examples:
  caseintake replay --db ./caseintake.db
  caseintake replay --case C1
  caseintake replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.CaseID, "case", "", "replay specific case only")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 8, "cases replayed concurrently (0 = unlimited)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	st, err := openLog(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	var caseIDs []string
	if opts.CaseID != "" {
		caseIDs = []string{opts.CaseID}
	} else {
		caseIDs, err = st.ListCases(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list cases", err)
		}
	}

	result := ReplayResult{
		Cases:            make([]ReplayCaseResult, len(caseIDs)),
		TotalCases:       len(caseIDs),
		AllDeterministic: true,
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, id := range caseIDs {
		g.Go(func() error {
			report, err := engine.Verify(gctx, st, id)
			if err != nil {
				return err
			}
			result.Cases[i] = ReplayCaseResult{
				CaseID:        report.CaseID,
				Events:        report.Events,
				Version:       report.Version,
				Gaps:          report.Gaps,
				Deterministic: report.Deterministic,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "failed to replay case log", err)
	}
	for _, c := range result.Cases {
		if !c.Deterministic {
			result.AllDeterministic = false
		}
	}
	if opts.CaseID == "" && len(caseIDs) > 0 {
		counts, err := st.KindCounts(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count events", err)
		}
		result.Kinds = make(map[string]int64, len(counts))
		for k, n := range counts {
			result.Kinds[string(k)] = n
		}
	}

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return outputReplayJSON(f, result)
	}
	return outputReplayText(f.Writer, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	if result.AllDeterministic {
		return f.Success(result)
	}
	if err := f.Failure(ErrCodeDeterminism, "determinism verification failed", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.TotalCases == 0 {
		fmt.Fprintln(w, "No cases found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d case(s)\n", result.TotalCases)
	fmt.Fprintln(w)

	for _, c := range result.Cases {
		status := "✓"
		if !c.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Case: %s (%d events)\n", status, c.CaseID, c.Events)
		if verbose {
			fmt.Fprintf(w, "  Version: %d\n", c.Version)
		}
		if len(c.Gaps) > 0 {
			fmt.Fprintf(w, "  Missing seq: %v\n", c.Gaps)
		}
		if !c.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
	}
	fmt.Fprintln(w)

	if verbose && len(result.Kinds) > 0 {
		fmt.Fprintln(w, "Events by kind:")
		kinds := make([]string, 0, len(result.Kinds))
		for k := range result.Kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", k, result.Kinds[k])
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All cases verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
