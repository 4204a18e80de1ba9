package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/caseintake/internal/engine"
	"github.com/roach88/caseintake/internal/harness"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	CaseID   string
	Kind     string // optional - filter to one event kind
}

// TraceEvent represents a single event in the case timeline.
type TraceEvent struct {
	Seq        int64          `json:"seq"`
	Kind       string         `json:"kind"`
	ID         string         `json:"id"`
	RecordedAt time.Time      `json:"recorded_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	CaseID   string         `json:"case_id"`
	Timeline []TraceEvent   `json:"timeline"`
	State    map[string]any `json:"state"`
	Stats    TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Kinds       map[string]int `json:"kinds"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the event history of a case",
		Long: `Print the stored event history of one case and the state it folds to.

The output includes:
- Timeline: events in sequence order
- State: the folded case state
- Stats: event counts by kind

Examples:
  caseintake trace --case C1
  caseintake trace --case C1 --kind MaterialPending
  caseintake trace --case C1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.CaseID, "case", "", "case to trace (required)")
	_ = cmd.MarkFlagRequired("case")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := openLog(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	records, err := st.Records(ctx, opts.CaseID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read case log", err)
	}

	f := opts.formatter(cmd)
	if len(records) == 0 {
		if f.Format == "json" {
			return f.Success(TraceResult{
				CaseID:   opts.CaseID,
				Timeline: []TraceEvent{},
				State:    map[string]any{},
				Stats:    TraceStats{Kinds: map[string]int{}},
			})
		}
		fmt.Fprintf(f.Writer, "No events found for case: %s\n", opts.CaseID)
		return nil
	}

	s, err := engine.Rebuild(ctx, st, opts.CaseID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to rebuild case", err)
	}

	result := TraceResult{
		CaseID:   opts.CaseID,
		Timeline: make([]TraceEvent, 0, len(records)),
		State:    harness.StateView(s),
		Stats:    TraceStats{TotalEvents: len(records), Kinds: make(map[string]int)},
	}
	for _, r := range records {
		kind := string(r.Kind)
		result.Stats.Kinds[kind]++
		if opts.Kind != "" && kind != opts.Kind {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to decode event %d", r.Seq), err)
		}
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:        r.Seq,
			Kind:       kind,
			ID:         r.ID,
			RecordedAt: r.RecordedAt,
			Payload:    payload,
		})
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	outputTraceText(f.Writer, result, opts.Verbose)
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Trace for Case: %s\n", result.CaseID)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, ev.Kind)
		if verbose {
			fmt.Fprintf(w, "       Payload: %s\n", formatArgs(ev.Payload))
			fmt.Fprintf(w, "       ID: %s  Recorded: %s\n", truncateID(ev.ID), ev.RecordedAt.Format(time.RFC3339))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== State ===")
	fmt.Fprintf(w, "  %s\n", formatArgs(result.State))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	kinds := make([]string, 0, len(result.Stats.Kinds))
	for k := range result.Stats.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, result.Stats.Kinds[k])
	}
}

// formatArgs formats a map for display.
// Uses sorted keys to ensure deterministic output.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value for display, handling nested structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
