package event

import (
	"encoding/json"

	"github.com/roach88/caseintake/internal/domain"
)

// Event is one decision recorded against a case.
type Event interface {
	Kind() Kind
	AggregateID() string
	sealed()
}

// CaseReceived records a new case accepted into intake without problems.
type CaseReceived struct {
	CaseID        string             `json:"caseId"`
	ExternalID    string             `json:"externalId,omitempty"`
	ApplicationID string             `json:"applicationId,omitempty"`
	Case          domain.CaseDetails `json:"case"`
	Defendants    []domain.Defendant `json:"defendants"`
	Annotations   map[string]string  `json:"annotations,omitempty"`
}

// CaseReceivedWithWarnings records a new case received with non-blocking problems.
type CaseReceivedWithWarnings struct {
	CaseID        string             `json:"caseId"`
	ExternalID    string             `json:"externalId,omitempty"`
	ApplicationID string             `json:"applicationId,omitempty"`
	Case          domain.CaseDetails `json:"case"`
	Defendants    []domain.Defendant `json:"defendants"`
	Warnings      []domain.Problem   `json:"warnings"`
	Annotations   map[string]string  `json:"annotations,omitempty"`
}

// CaseRejected records a new case that failed validation. The submission is
// held so that a later correction can be merged into it.
type CaseRejected struct {
	CaseID     string             `json:"caseId"`
	ExternalID string             `json:"externalId,omitempty"`
	Case       domain.CaseDetails `json:"case"`
	Defendants []domain.Defendant `json:"defendants"`
	Problems   []domain.Problem   `json:"problems"`
}

// ReceivedWithDuplicateDefendants reports defendants recognised as already
// known on the case. They are not added.
type ReceivedWithDuplicateDefendants struct {
	CaseID            string             `json:"caseId"`
	ExternalID        string             `json:"externalId,omitempty"`
	ProsecutorCaseRef string             `json:"prosecutorCaseReference"`
	Duplicates        []domain.Defendant `json:"duplicates"`
}

// DefendantsAdded records new defendants joining an existing case.
type DefendantsAdded struct {
	CaseID        string             `json:"caseId"`
	ExternalID    string             `json:"externalId,omitempty"`
	ApplicationID string             `json:"applicationId,omitempty"`
	Defendants    []domain.Defendant `json:"defendants"`
	Warnings      []domain.Problem   `json:"warnings,omitempty"`
	Annotations   map[string]string  `json:"annotations,omitempty"`
}

// DefendantsReceivedNotAdded records defendants received for a case that is
// still held with errors. They wait for the case's correction.
type DefendantsReceivedNotAdded struct {
	CaseID     string             `json:"caseId"`
	ExternalID string             `json:"externalId,omitempty"`
	Defendants []domain.Defendant `json:"defendants"`
	Problems   []domain.Problem   `json:"problems,omitempty"`
}

// DefendantValidationFailed records defendants withheld because of errors.
type DefendantValidationFailed struct {
	CaseID     string             `json:"caseId"`
	ExternalID string             `json:"externalId,omitempty"`
	Defendants []domain.Defendant `json:"defendants"`
	Problems   []domain.Problem   `json:"problems"`
}

// DefendantsParkedForApproval records a summons application awaiting the
// court's decision.
type DefendantsParkedForApproval struct {
	CaseID                string             `json:"caseId"`
	ExternalID            string             `json:"externalId,omitempty"`
	ApplicationID         string             `json:"applicationId"`
	PreviousApplicationID string             `json:"previousApplicationId,omitempty"`
	Case                  domain.CaseDetails `json:"case"`
	Defendants            []domain.Defendant `json:"defendants"`
	Warnings              []domain.Problem   `json:"warnings,omitempty"`
}

// SummonsRejected records the court refusing a summons application.
type SummonsRejected struct {
	CaseID        string             `json:"caseId"`
	ApplicationID string             `json:"applicationId"`
	Defendants    []domain.Defendant `json:"defendants"`
	Reason        string             `json:"reason,omitempty"`
}

// CaseValidationCompleted records that every previously reported error has
// been corrected.
type CaseValidationCompleted struct {
	CaseID string `json:"caseId"`
}

// CaseResolved records the court location of a corrected case.
type CaseResolved struct {
	CaseID        string               `json:"caseId"`
	CourtLocation domain.CourtLocation `json:"courtLocation"`
}

// CaseAccepted records downstream acceptance of the case.
type CaseAccepted struct {
	CaseID       string   `json:"caseId"`
	ExternalID   string   `json:"externalId,omitempty"`
	DefendantIDs []string `json:"defendantIds,omitempty"`
}

// CaseAcceptedWithWarnings records acceptance of a case carrying warnings.
type CaseAcceptedWithWarnings struct {
	CaseID       string           `json:"caseId"`
	ExternalID   string           `json:"externalId,omitempty"`
	DefendantIDs []string         `json:"defendantIds,omitempty"`
	Warnings     []domain.Problem `json:"warnings"`
}

// MaterialPending records a material held until its case is accepted.
type MaterialPending struct {
	CaseID   string          `json:"caseId"`
	Material domain.Material `json:"material"`
}

// MaterialAdded records a material attached to the case.
type MaterialAdded struct {
	CaseID       string          `json:"caseId"`
	Material     domain.Material `json:"material"`
	DefendantIDs []string        `json:"defendantIds,omitempty"`
}

// MaterialAddedWithWarnings records a material attached with warnings.
type MaterialAddedWithWarnings struct {
	CaseID       string           `json:"caseId"`
	Material     domain.Material  `json:"material"`
	DefendantIDs []string         `json:"defendantIds,omitempty"`
	Warnings     []domain.Problem `json:"warnings"`
}

// MaterialRejected records a material that failed validation or expired.
type MaterialRejected struct {
	CaseID   string           `json:"caseId"`
	Material domain.Material  `json:"material"`
	Problems []domain.Problem `json:"problems"`
}

// DocumentReviewRequired asks a caseworker to review a material that does
// not match the case or defendant shape its authority should send.
type DocumentReviewRequired struct {
	CaseID               string           `json:"caseId"`
	MaterialRef          string           `json:"materialReference"`
	ProsecutingAuthority string           `json:"prosecutingAuthority"`
	Problems             []domain.Problem `json:"problems"`
}

// IDPCMatched records that the initial details of the prosecution case have
// been matched to the case.
type IDPCMatched struct {
	CaseID       string   `json:"caseId"`
	MaterialRef  string   `json:"materialReference"`
	DefendantIDs []string `json:"defendantIds,omitempty"`
}

// CaseDefendantChanged replaces a live defendant on an accepted case.
type CaseDefendantChanged struct {
	CaseID    string           `json:"caseId"`
	Defendant domain.Defendant `json:"defendant"`
	Warnings  []domain.Problem `json:"warnings,omitempty"`
}

// CaseAssigned records a caseworker assignment.
type CaseAssigned struct {
	CaseID     string `json:"caseId"`
	AssigneeID string `json:"assigneeId"`
}

// CaseUnassigned clears the caseworker assignment.
type CaseUnassigned struct {
	CaseID string `json:"caseId"`
}

// CaseEjected removes the case from intake processing.
type CaseEjected struct {
	CaseID string `json:"caseId"`
	Reason string `json:"reason,omitempty"`
}

// CaseFiltered marks the case as filtered out of downstream processing.
type CaseFiltered struct {
	CaseID string `json:"caseId"`
	Reason string `json:"reason,omitempty"`
}

// CaseReferredToCourt records referral of the case to a court hearing.
type CaseReferredToCourt struct {
	CaseID        string               `json:"caseId"`
	CourtLocation domain.CourtLocation `json:"courtLocation"`
	HearingDate   string               `json:"hearingDate,omitempty"`
}

// Unknown carries an event whose kind this build does not recognise.
type Unknown struct {
	EventKind Kind            `json:"-"`
	CaseID    string          `json:"-"`
	Payload   json.RawMessage `json:"-"`
}

func (e CaseReceived) Kind() Kind                    { return KindCaseReceived }
func (e CaseReceivedWithWarnings) Kind() Kind        { return KindCaseReceivedWithWarnings }
func (e CaseRejected) Kind() Kind                    { return KindCaseRejected }
func (e ReceivedWithDuplicateDefendants) Kind() Kind { return KindReceivedWithDuplicateDefendants }
func (e DefendantsAdded) Kind() Kind                 { return KindDefendantsAdded }
func (e DefendantsReceivedNotAdded) Kind() Kind      { return KindDefendantsReceivedNotAdded }
func (e DefendantValidationFailed) Kind() Kind       { return KindDefendantValidationFailed }
func (e DefendantsParkedForApproval) Kind() Kind     { return KindDefendantsParkedForApproval }
func (e SummonsRejected) Kind() Kind                 { return KindSummonsRejected }
func (e CaseValidationCompleted) Kind() Kind         { return KindCaseValidationCompleted }
func (e CaseResolved) Kind() Kind                    { return KindCaseResolved }
func (e CaseAccepted) Kind() Kind                    { return KindCaseAccepted }
func (e CaseAcceptedWithWarnings) Kind() Kind        { return KindCaseAcceptedWithWarnings }
func (e MaterialPending) Kind() Kind                 { return KindMaterialPending }
func (e MaterialAdded) Kind() Kind                   { return KindMaterialAdded }
func (e MaterialAddedWithWarnings) Kind() Kind       { return KindMaterialAddedWithWarnings }
func (e MaterialRejected) Kind() Kind                { return KindMaterialRejected }
func (e DocumentReviewRequired) Kind() Kind          { return KindDocumentReviewRequired }
func (e IDPCMatched) Kind() Kind                     { return KindIDPCMatched }
func (e CaseDefendantChanged) Kind() Kind            { return KindCaseDefendantChanged }
func (e CaseAssigned) Kind() Kind                    { return KindCaseAssigned }
func (e CaseUnassigned) Kind() Kind                  { return KindCaseUnassigned }
func (e CaseEjected) Kind() Kind                     { return KindCaseEjected }
func (e CaseFiltered) Kind() Kind                    { return KindCaseFiltered }
func (e CaseReferredToCourt) Kind() Kind             { return KindCaseReferredToCourt }
func (e Unknown) Kind() Kind                         { return e.EventKind }

func (e CaseReceived) AggregateID() string                    { return e.CaseID }
func (e CaseReceivedWithWarnings) AggregateID() string        { return e.CaseID }
func (e CaseRejected) AggregateID() string                    { return e.CaseID }
func (e ReceivedWithDuplicateDefendants) AggregateID() string { return e.CaseID }
func (e DefendantsAdded) AggregateID() string                 { return e.CaseID }
func (e DefendantsReceivedNotAdded) AggregateID() string      { return e.CaseID }
func (e DefendantValidationFailed) AggregateID() string       { return e.CaseID }
func (e DefendantsParkedForApproval) AggregateID() string     { return e.CaseID }
func (e SummonsRejected) AggregateID() string                 { return e.CaseID }
func (e CaseValidationCompleted) AggregateID() string         { return e.CaseID }
func (e CaseResolved) AggregateID() string                    { return e.CaseID }
func (e CaseAccepted) AggregateID() string                    { return e.CaseID }
func (e CaseAcceptedWithWarnings) AggregateID() string        { return e.CaseID }
func (e MaterialPending) AggregateID() string                 { return e.CaseID }
func (e MaterialAdded) AggregateID() string                   { return e.CaseID }
func (e MaterialAddedWithWarnings) AggregateID() string       { return e.CaseID }
func (e MaterialRejected) AggregateID() string                { return e.CaseID }
func (e DocumentReviewRequired) AggregateID() string          { return e.CaseID }
func (e IDPCMatched) AggregateID() string                     { return e.CaseID }
func (e CaseDefendantChanged) AggregateID() string            { return e.CaseID }
func (e CaseAssigned) AggregateID() string                    { return e.CaseID }
func (e CaseUnassigned) AggregateID() string                  { return e.CaseID }
func (e CaseEjected) AggregateID() string                     { return e.CaseID }
func (e CaseFiltered) AggregateID() string                    { return e.CaseID }
func (e CaseReferredToCourt) AggregateID() string             { return e.CaseID }
func (e Unknown) AggregateID() string                         { return e.CaseID }

func (CaseReceived) sealed()                    {}
func (CaseReceivedWithWarnings) sealed()        {}
func (CaseRejected) sealed()                    {}
func (ReceivedWithDuplicateDefendants) sealed() {}
func (DefendantsAdded) sealed()                 {}
func (DefendantsReceivedNotAdded) sealed()      {}
func (DefendantValidationFailed) sealed()       {}
func (DefendantsParkedForApproval) sealed()     {}
func (SummonsRejected) sealed()                 {}
func (CaseValidationCompleted) sealed()         {}
func (CaseResolved) sealed()                    {}
func (CaseAccepted) sealed()                    {}
func (CaseAcceptedWithWarnings) sealed()        {}
func (MaterialPending) sealed()                 {}
func (MaterialAdded) sealed()                   {}
func (MaterialAddedWithWarnings) sealed()       {}
func (MaterialRejected) sealed()                {}
func (DocumentReviewRequired) sealed()          {}
func (IDPCMatched) sealed()                     {}
func (CaseDefendantChanged) sealed()            {}
func (CaseAssigned) sealed()                    {}
func (CaseUnassigned) sealed()                  {}
func (CaseEjected) sealed()                     {}
func (CaseFiltered) sealed()                    {}
func (CaseReferredToCourt) sealed()             {}
func (Unknown) sealed()                         {}
