// Package state reconstructs a case from its event history.
//
// CaseState is never stored. It is rebuilt by folding the case's events,
// in order, from the zero value. Apply is pure: it copies the incoming state,
// applies one event to the copy and returns it, so a state value handed to a
// caller is never mutated afterwards.
package state

import (
	"github.com/roach88/caseintake/internal/domain"
)

// ApplicationStatus is the lifecycle of a summons application.
type ApplicationStatus string

const (
	ApplicationParked   ApplicationStatus = "PARKED"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// SummonsApplication is the parking record of one summons application.
type SummonsApplication struct {
	ID              string             `json:"id"`
	ExternalID      string             `json:"externalId,omitempty"`
	PreviousID      string             `json:"previousId,omitempty"`
	Status          ApplicationStatus  `json:"status"`
	Case            domain.CaseDetails `json:"case"`
	Defendants      []domain.Defendant `json:"defendants"`
	Warnings        []domain.Problem   `json:"warnings,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
}

// HeldSubmission is a new case rejected with errors, kept so that a
// correction can be merged into it.
type HeldSubmission struct {
	ExternalID string             `json:"externalId,omitempty"`
	Case       domain.CaseDetails `json:"case"`
	Defendants []domain.Defendant `json:"defendants"`
	Problems   []domain.Problem   `json:"problems"`
}

// WithheldDefendant is a defendant of a received case withheld with errors.
type WithheldDefendant struct {
	ExternalID string           `json:"externalId,omitempty"`
	Defendant  domain.Defendant `json:"defendant"`
	Problems   []domain.Problem `json:"problems"`
}

// CaseState is the folded state of one case.
type CaseState struct {
	CaseID string             `json:"caseId"`
	Case   domain.CaseDetails `json:"case"`
	// InitiationCode is fixed by the first live defendant and constrains the
	// codes later defendants may carry.
	InitiationCode domain.InitiationCode `json:"initiationCode,omitempty"`

	Received            bool   `json:"received"`
	Rejected            bool   `json:"rejected"`
	Accepted            bool   `json:"accepted"`
	ValidationCompleted bool   `json:"validationCompleted"`
	ReferredToCourt     bool   `json:"referredToCourt"`
	Assigned            bool   `json:"assigned"`
	AssigneeID          string `json:"assigneeId,omitempty"`
	Ejected             bool   `json:"ejected"`
	Filtered            bool   `json:"filtered"`

	CourtLocation domain.CourtLocation `json:"courtLocation"`

	Defendants []domain.Defendant  `json:"defendants"`
	Withheld   []WithheldDefendant `json:"withheld,omitempty"`
	Held       *HeldSubmission     `json:"held,omitempty"`
	Warnings   []domain.Problem    `json:"warnings,omitempty"`

	PendingMaterials  []domain.Material `json:"pendingMaterials,omitempty"`
	ResolvedMaterials map[string]bool   `json:"resolvedMaterials,omitempty"`
	ReviewMaterials   []string          `json:"reviewMaterials,omitempty"`
	IDPCMaterialRef   string            `json:"idpcMaterialRef,omitempty"`

	Applications map[string]SummonsApplication `json:"applications,omitempty"`
	ExternalIDs  map[string][]string           `json:"externalIds,omitempty"`
	Annotations  map[string]string             `json:"annotations,omitempty"`

	// Version is the number of events folded, including unrecognised ones.
	Version int64 `json:"version"`
}

// Exists reports whether the case has been seen in any form.
func (s CaseState) Exists() bool {
	return s.Received || s.Rejected || len(s.Applications) > 0
}

// Defendant returns the live defendant with the given id.
func (s CaseState) Defendant(id string) (domain.Defendant, bool) {
	for _, d := range s.Defendants {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Defendant{}, false
}

// DefendantByRef returns the live defendant with the given prosecutor
// defendant reference.
func (s CaseState) DefendantByRef(ref string) (domain.Defendant, bool) {
	for _, d := range s.Defendants {
		if domain.EqualFold(d.ProsecutorDefendantRef, ref) {
			return d, true
		}
	}
	return domain.Defendant{}, false
}

// KnownDefendants returns every defendant already on the case: live, held,
// withheld and those in parked applications. Rejected applications are
// excluded so their defendants can be submitted again.
func (s CaseState) KnownDefendants() []domain.Defendant {
	out := append([]domain.Defendant(nil), s.Defendants...)
	if s.Held != nil {
		out = append(out, s.Held.Defendants...)
	}
	for _, w := range s.Withheld {
		out = append(out, w.Defendant)
	}
	for _, id := range sortedKeys(s.Applications) {
		if app := s.Applications[id]; app.Status == ApplicationParked {
			out = append(out, app.Defendants...)
		}
	}
	return out
}

// Application returns the summons application with the given id.
func (s CaseState) Application(id string) (SummonsApplication, bool) {
	app, ok := s.Applications[id]
	return app, ok
}

// ApplicationsWithStatus returns the applications in st, ordered by id.
func (s CaseState) ApplicationsWithStatus(st ApplicationStatus) []SummonsApplication {
	var out []SummonsApplication
	for _, id := range sortedKeys(s.Applications) {
		if app := s.Applications[id]; app.Status == st {
			out = append(out, app)
		}
	}
	return out
}

// PendingMaterial returns the pending material with the given reference.
func (s CaseState) PendingMaterial(ref string) (domain.Material, bool) {
	for _, m := range s.PendingMaterials {
		if m.Reference == ref {
			return m, true
		}
	}
	return domain.Material{}, false
}

// MaterialKnown reports whether ref is pending or already resolved.
func (s CaseState) MaterialKnown(ref string) bool {
	if s.ResolvedMaterials[ref] {
		return true
	}
	_, ok := s.PendingMaterial(ref)
	return ok
}

// OutstandingProblems returns every unresolved error on the case.
func (s CaseState) OutstandingProblems() []domain.Problem {
	var out []domain.Problem
	if s.Held != nil {
		errs, _ := domain.SplitProblems(s.Held.Problems)
		out = append(out, errs...)
	}
	for _, w := range s.Withheld {
		errs, _ := domain.SplitProblems(w.Problems)
		out = append(out, errs...)
	}
	return out
}
