package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/intake"
)

// ExpireOptions holds flags for the expire command.
type ExpireOptions struct {
	*RootOptions
	Database    string
	CaseID      string
	MaterialRef string
	At          string
}

// NewExpireCommand creates the expire command.
func NewExpireCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpireOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire one pending material",
		Long: `Reject a pending material of a case as expired.

A material that is not pending (already added, rejected or never seen) is
left alone and nothing is recorded.

Examples:
  caseintake expire --case C1 --material M1
  caseintake expire --case C1 --material M1 --at 2024-03-31T09:00:00Z`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpire(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.CaseID, "case", "", "case id (required)")
	cmd.Flags().StringVar(&opts.MaterialRef, "material", "", "material reference (required)")
	cmd.Flags().StringVar(&opts.At, "at", "", "expiry instant, RFC 3339 (default now)")
	_ = cmd.MarkFlagRequired("case")
	_ = cmd.MarkFlagRequired("material")

	return cmd
}

func runExpire(opts *ExpireOptions, cmd *cobra.Command) error {
	c := intake.ExpireMaterial{CaseID: opts.CaseID, MaterialRef: opts.MaterialRef}
	if opts.At != "" {
		at, err := time.Parse(time.RFC3339, opts.At)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
		c.ExpiredAt = at.UTC()
	}

	sess, err := openSession(opts.RootOptions, sessionConfig{database: opts.Database})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	res, err := sess.engine.Dispatch(ctx, c)
	if err != nil {
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}
	return outputDispatch(opts.formatter(cmd), newDispatchResult(res))
}

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Database string
	MaxAge   time.Duration
	Now      string
}

// SweepCase reports the materials expired on one case.
type SweepCase struct {
	CaseID  string   `json:"case_id"`
	Expired []string `json:"expired"`
}

// SweepResult summarises a sweep over the case log.
type SweepResult struct {
	MaxAge   string         `json:"max_age"`
	Scanned  int            `json:"scanned"`
	Cases    []SweepCase    `json:"cases"`
	Expired  int            `json:"expired"`
	Commands map[string]int `json:"commands"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale pending materials across all cases",
		Long: `Expire every pending material older than the maximum age, on every case in
the case log. Cases are swept in parallel.

Examples:
  caseintake sweep
  caseintake sweep --max-age 48h
  caseintake sweep --now 2024-04-01T00:00:00Z --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().DurationVar(&opts.MaxAge, "max-age", 0, "maximum pending age (default material_lifetime from config)")
	cmd.Flags().StringVar(&opts.Now, "now", "", "sweep instant, RFC 3339 (default now)")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	var now time.Time
	if opts.Now != "" {
		t, err := time.Parse(time.RFC3339, opts.Now)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --now", err)
		}
		now = t.UTC()
	}

	sess, err := openSession(opts.RootOptions, sessionConfig{database: opts.Database})
	if err != nil {
		return err
	}
	defer sess.Close()

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = opts.Config.MaterialLifetime
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	caseIDs, err := sess.store.ListCases(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list cases", err)
	}
	cmds := make([]intake.Command, len(caseIDs))
	for i, id := range caseIDs {
		cmds[i] = intake.ExpirePendingMaterials{CaseID: id, Now: now, MaxAge: maxAge}
	}

	results, err := sess.engine.DispatchAll(ctx, cmds)
	if err != nil {
		return WrapExitError(ExitCommandError, "sweep failed", err)
	}

	result := SweepResult{MaxAge: maxAge.String(), Scanned: len(caseIDs), Cases: []SweepCase{}}
	for _, res := range results {
		var expired []string
		for _, ev := range res.Events {
			if rej, ok := ev.(event.MaterialRejected); ok {
				expired = append(expired, rej.Material.Reference)
			}
		}
		if len(expired) == 0 {
			continue
		}
		result.Cases = append(result.Cases, SweepCase{CaseID: res.CaseID, Expired: expired})
		result.Expired += len(expired)
	}
	result.Commands = sess.commandOutcomes()

	sess.logger.Info("sweep finished",
		zap.Int("cases", result.Scanned),
		zap.Int("expired", result.Expired),
		zap.Duration("max_age", maxAge),
	)

	f := opts.formatter(cmd)
	if f.Format == "json" {
		return f.Success(result)
	}
	outputSweepText(f.Writer, result)
	return nil
}

func outputSweepText(w io.Writer, result SweepResult) {
	fmt.Fprintf(w, "Swept %d case(s) for materials pending longer than %s\n", result.Scanned, result.MaxAge)
	for _, c := range result.Cases {
		fmt.Fprintf(w, "  %s: expired %v\n", c.CaseID, c.Expired)
	}
	fmt.Fprintf(w, "Expired %d material(s)\n", result.Expired)
}
