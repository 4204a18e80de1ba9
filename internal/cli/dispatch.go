package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/caseintake/internal/engine"
	"github.com/roach88/caseintake/internal/intake"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	Database string
	Args     string
	File     string

	// IDs overrides the correlation ID generator (for testing).
	IDs engine.IDGenerator
}

// AppendedEvent is one event appended by a command.
type AppendedEvent struct {
	Seq  int64  `json:"seq"`
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// DispatchResult is the outcome of one dispatched command.
type DispatchResult struct {
	CorrelationID string          `json:"correlation_id"`
	CaseID        string          `json:"case_id"`
	Command       string          `json:"command"`
	Events        []AppendedEvent `json:"events"`
	Version       int64           `json:"version"`
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dispatch <command-kind>",
		Short: "Dispatch one command to its case",
		Long: `Decode a command from JSON and dispatch it to the actor of its case.

The JSON body comes from --args, from --file, or from stdin with --file -.
A material submitted without a reference is given a generated one.

Examples:
  caseintake dispatch AcceptCase --args '{"caseId":"C1"}'
  caseintake dispatch ReceiveSubmission --file submission.json
  cat material.json | caseintake dispatch AddMaterial --file -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Args, "args", "", "command body as JSON")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the command body from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("args", "file")

	return cmd
}

func dispatchCommand(opts *DispatchOptions, kind string, cmd *cobra.Command) error {
	body, err := readBody(opts, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read command body", err)
	}
	c, err := intake.DecodeCommand(kind, body)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid command", err)
	}
	c = withMaterialReference(c)

	sess, err := openSession(opts.RootOptions, sessionConfig{database: opts.Database, ids: opts.IDs})
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

func readBody(opts *DispatchOptions, stdin io.Reader) ([]byte, error) {
	switch opts.File {
	case "":
		if opts.Args == "" {
			return nil, fmt.Errorf("one of --args or --file is required")
		}
		return []byte(opts.Args), nil
	case "-":
		return io.ReadAll(stdin)
	default:
		return os.ReadFile(opts.File)
	}
}

// withMaterialReference gives an unreferenced material a random reference.
func withMaterialReference(c intake.Command) intake.Command {
	switch m := c.(type) {
	case intake.AddMaterial:
		if m.Material.Reference == "" {
			m.Material.Reference = uuid.NewString()
		}
		return m
	case intake.AddMaterialV2:
		if m.Material.Reference == "" {
			m.Material.Reference = uuid.NewString()
		}
		return m
	}
	return c
}

func newDispatchResult(res engine.Result) DispatchResult {
	out := DispatchResult{
		CorrelationID: res.CorrelationID,
		CaseID:        res.CaseID,
		Command:       res.Command,
		Events:        make([]AppendedEvent, 0, len(res.Envelopes)),
		Version:       res.State.Version,
	}
	for _, env := range res.Envelopes {
		out.Events = append(out.Events, AppendedEvent{Seq: env.Seq, Kind: string(env.Kind), ID: env.ID})
	}
	return out
}

func outputDispatch(f *OutputFormatter, res DispatchResult) error {
	if f.Format == "json" {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "%s %s (correlation %s)\n", res.Command, res.CaseID, res.CorrelationID)
	if len(res.Events) == 0 {
		fmt.Fprintln(f.Writer, "  (no events)")
	}
	for _, ev := range res.Events {
		fmt.Fprintf(f.Writer, "  [%d] %s %s\n", ev.Seq, ev.Kind, truncateID(ev.ID))
	}
	fmt.Fprintf(f.Writer, "Version: %d\n", res.Version)
	return nil
}
