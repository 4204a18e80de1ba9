package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/caseintake/internal/intake"
)

// Scenario defines an intake scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the initial clock reading. Defaults to DefaultNow.
	Now time.Time `yaml:"now,omitempty"`

	// Rules is an optional CUE rule-set document, relative to the scenario.
	Rules string `yaml:"rules,omitempty"`

	// ReferenceData is an optional YAML reference-data file, relative to the
	// scenario.
	ReferenceData string `yaml:"reference_data,omitempty"`

	// Steps are dispatched in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final states.
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultNow is the clock reading of a scenario that sets none.
var DefaultNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Step dispatches one command.
type Step struct {
	// CommandKind is the command kind, e.g. "ReceiveSubmission".
	CommandKind string `yaml:"command"`

	// At moves the clock forward before the command is dispatched.
	At *time.Time `yaml:"at,omitempty"`

	// Args is the JSON form of the command.
	Args map[string]any `yaml:"args"`

	// Expect is the exact list of event kinds the command must emit.
	Expect []string `yaml:"expect,omitempty"`

	// ExpectNone requires the command to emit nothing.
	ExpectNone bool `yaml:"expect_none,omitempty"`
}

// Assertion validates the trace or a final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is the event kind (event_emitted, event_count).
	Event string `yaml:"event,omitempty"`

	// Case restricts the assertion to one case (all types; required for
	// final_state).
	Case string `yaml:"case,omitempty"`

	// Fields is a subset match against the event payload (event_emitted).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Events is the expected relative order of event kinds (event_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Expect is a subset match against the state view (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventEmitted = "event_emitted"
	AssertEventOrder   = "event_order"
	AssertEventCount   = "event_count"
	AssertFinalState   = "final_state"
)

// Decode converts the step into an intake command.
func (s Step) Decode() (intake.Command, error) {
	data, err := json.Marshal(s.Args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return intake.DecodeCommand(s.CommandKind, data)
}

// LoadScenario reads and parses a scenario YAML file, resolving rules and
// reference-data paths relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&scenario.Rules, &scenario.ReferenceData} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.CommandKind == "" {
			return fmt.Errorf("steps[%d]: command is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("steps[%d]: args is required", i)
		}
		if step.ExpectNone && len(step.Expect) > 0 {
			return fmt.Errorf("steps[%d]: expect and expect_none are exclusive", i)
		}
		if _, err := step.Decode(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEventEmitted:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_emitted", index)
		}
	case AssertEventOrder:
		if len(a.Events) < 2 {
			return fmt.Errorf("assertions[%d]: at least two events are required for event_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: case is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
