package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%s #%d] step %d %s -> %s\n", ev.CaseID, ev.Seq, ev.Step, ev.Command, ev.Kind)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventEmitted:
			err = assertEventEmitted(result.Trace, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, a)
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func forCase(trace []TraceEvent, caseID string) []TraceEvent {
	if caseID == "" {
		return trace
	}
	var out []TraceEvent
	for _, ev := range trace {
		if ev.CaseID == caseID {
			out = append(out, ev)
		}
	}
	return out
}

func assertEventEmitted(trace []TraceEvent, a Assertion) error {
	for _, ev := range forCase(trace, a.Case) {
		if ev.Kind == a.Event && matchFields(ev.Payload, a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventEmitted,
		Expected: fmt.Sprintf("event %s with fields %v", a.Event, a.Fields),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertEventOrder checks that the first occurrences of the events appear
// in the given order. Other events may interleave.
func assertEventOrder(trace []TraceEvent, a Assertion) error {
	events := forCase(trace, a.Case)
	positions := make(map[string]int)
	for i, ev := range events {
		if _, seen := positions[ev.Kind]; !seen {
			positions[ev.Kind] = i
		}
	}

	for _, kind := range a.Events {
		if _, ok := positions[kind]; !ok {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Events),
				Actual:   fmt.Sprintf("missing event: %s", kind),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Events); i++ {
		prev, curr := a.Events[i-1], a.Events[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev]+1, curr, positions[curr]+1),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range forCase(trace, a.Case) {
		if ev.Kind == a.Event {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%s emitted %d times", a.Event, a.Count),
			Actual:   fmt.Sprintf("emitted %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	s, ok := result.States[a.Case]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("case %s in the log", a.Case),
			Actual:   "no events for case",
		}
	}

	view := StateView(s)
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, known := view[k]
		if !known {
			mismatches = append(mismatches, fmt.Sprintf("%s: unknown state field", k))
			continue
		}
		if !valuesEqual(got, a.Expect[k]) {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %v, want %v", k, got, a.Expect[k]))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("case %s state %v", a.Case, a.Expect),
			Actual:   strings.Join(mismatches, "; "),
		}
	}
	return nil
}

// matchFields reports whether want is a subset of got. Nested maps are
// matched recursively; lists must match element-wise.
func matchFields(got map[string]any, want map[string]any) bool {
	for k, w := range want {
		g, ok := got[k]
		if !ok {
			return false
		}
		if !matchValue(g, w) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		return ok && matchFields(g, w)
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !matchValue(g[i], w[i]) {
				return false
			}
		}
		return true
	default:
		return valuesEqual(got, want)
	}
}

// valuesEqual compares scalars across YAML and JSON decodings, where the
// same number may be an int on one side and a float64 on the other.
func valuesEqual(got, want any) bool {
	if reflect.DeepEqual(got, want) {
		return true
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}
