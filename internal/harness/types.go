package harness

import (
	"github.com/roach88/caseintake/internal/state"
)

// TraceEvent is one appended event in dispatch order.
type TraceEvent struct {
	Step          int            `json:"step"`
	Command       string         `json:"command"`
	CorrelationID string         `json:"correlation_id"`
	CaseID        string         `json:"case"`
	Seq           int64          `json:"seq"`
	Kind          string         `json:"kind"`
	Payload       map[string]any `json:"-"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// States holds every case rebuilt from the log after the last step.
	States map[string]state.CaseState `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		States: make(map[string]state.CaseState),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// StateView flattens the parts of a case state scenarios assert on.
func StateView(s state.CaseState) map[string]any {
	return map[string]any{
		"exists":                s.Exists(),
		"received":              s.Received,
		"rejected":              s.Rejected,
		"accepted":              s.Accepted,
		"validation_completed":  s.ValidationCompleted,
		"referred_to_court":     s.ReferredToCourt,
		"court_location":        s.CourtLocation.OUCode,
		"assigned":              s.Assigned,
		"assignee_id":           s.AssigneeID,
		"ejected":               s.Ejected,
		"filtered":              s.Filtered,
		"initiation_code":       string(s.InitiationCode),
		"defendants":            len(s.Defendants),
		"withheld":              len(s.Withheld),
		"held":                  s.Held != nil,
		"warnings":              len(s.Warnings),
		"pending_materials":     len(s.PendingMaterials),
		"resolved_materials":    len(s.ResolvedMaterials),
		"review_materials":      len(s.ReviewMaterials),
		"idpc_material":         s.IDPCMaterialRef,
		"parked_applications":   len(s.ApplicationsWithStatus(state.ApplicationParked)),
		"rejected_applications": len(s.ApplicationsWithStatus(state.ApplicationRejected)),
		"version":               s.Version,
	}
}
