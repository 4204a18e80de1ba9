package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/caseintake/internal/domain"
)

// ErrUnknownCommand is returned by DecodeCommand for an unregistered kind.
var ErrUnknownCommand = errors.New("unknown command kind")

// Command kinds.
const (
	KindReceiveSubmission      = "ReceiveSubmission"
	KindApplyCorrection        = "ApplyCorrection"
	KindAcceptCase             = "AcceptCase"
	KindApproveSummons         = "ApproveSummons"
	KindRejectSummons          = "RejectSummons"
	KindAddMaterial            = "AddMaterial"
	KindAddMaterialV2          = "AddMaterialV2"
	KindExpireMaterial         = "ExpireMaterial"
	KindExpirePendingMaterials = "ExpirePendingMaterials"
	KindChangeDefendant        = "ChangeDefendant"
	KindAssignCase             = "AssignCase"
	KindUnassignCase           = "UnassignCase"
	KindEjectCase              = "EjectCase"
	KindFilterCase             = "FilterCase"
	KindReferToCourt           = "ReferToCourt"
)

// Command is an instruction addressed to one case.
type Command interface {
	CommandKind() string
	TargetCase() string
}

// ReceiveSubmission delivers a submission from an upstream channel.
type ReceiveSubmission struct {
	domain.Submission
}

// FieldCorrection replaces one field of a held case or defendant. An empty
// DefendantID addresses the case. Index selects the offence for offence
// fields; an index one past the end appends a new offence.
type FieldCorrection struct {
	DefendantID string `json:"defendantId,omitempty"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Index       int    `json:"index,omitempty"`
}

// ApplyCorrection merges corrections into the held submission or the
// withheld defendants and re-validates them.
type ApplyCorrection struct {
	CaseID      string            `json:"caseId"`
	ExternalID  string            `json:"externalId,omitempty"`
	Corrections []FieldCorrection `json:"corrections"`
}

// AcceptCase confirms downstream acceptance. A non-empty ExternalID limits
// the acknowledgement to the defendants that submission produced.
type AcceptCase struct {
	CaseID     string `json:"caseId"`
	ExternalID string `json:"externalId,omitempty"`
}

// ApproveSummons approves a parked summons application.
type ApproveSummons struct {
	CaseID        string `json:"caseId"`
	ApplicationID string `json:"applicationId"`
}

// RejectSummons refuses a summons application.
type RejectSummons struct {
	CaseID        string `json:"caseId"`
	ApplicationID string `json:"applicationId"`
	Reason        string `json:"reason,omitempty"`
}

// AddMaterial submits a material in the original shape.
type AddMaterial struct {
	CaseID   string          `json:"caseId"`
	Material domain.Material `json:"material"`
}

// AddMaterialV2 submits a material in the extended shape, which can name
// several defendants and carries the upstream submission id.
type AddMaterialV2 struct {
	CaseID        string          `json:"caseId"`
	SubmissionID  string          `json:"submissionId"`
	Material      domain.Material `json:"material"`
	DefendantRefs []string        `json:"defendantRefs,omitempty"`
}

// ExpireMaterial is the expiry trigger for one pending material. A zero
// ExpiredAt means now.
type ExpireMaterial struct {
	CaseID      string    `json:"caseId"`
	MaterialRef string    `json:"materialReference"`
	ExpiredAt   time.Time `json:"expiredAt,omitempty"`
}

// ExpirePendingMaterials expires every pending material older than MaxAge.
type ExpirePendingMaterials struct {
	CaseID string        `json:"caseId"`
	Now    time.Time     `json:"now,omitempty"`
	MaxAge time.Duration `json:"maxAge"`
}

// UnmarshalJSON accepts maxAge as a Go duration string such as "720h".
func (c *ExpirePendingMaterials) UnmarshalJSON(data []byte) error {
	var raw struct {
		CaseID string    `json:"caseId"`
		Now    time.Time `json:"now"`
		MaxAge string    `json:"maxAge"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	maxAge, err := time.ParseDuration(raw.MaxAge)
	if err != nil {
		return fmt.Errorf("maxAge: %w", err)
	}
	*c = ExpirePendingMaterials{CaseID: raw.CaseID, Now: raw.Now, MaxAge: maxAge}
	return nil
}

// ChangeDefendant replaces a live defendant, matched by ID.
type ChangeDefendant struct {
	CaseID    string           `json:"caseId"`
	Defendant domain.Defendant `json:"defendant"`
}

// AssignCase assigns the case to a caseworker.
type AssignCase struct {
	CaseID     string `json:"caseId"`
	AssigneeID string `json:"assigneeId"`
}

// UnassignCase clears the assignment.
type UnassignCase struct {
	CaseID string `json:"caseId"`
}

// EjectCase removes the case from intake.
type EjectCase struct {
	CaseID string `json:"caseId"`
	Reason string `json:"reason,omitempty"`
}

// FilterCase filters the case out of downstream processing.
type FilterCase struct {
	CaseID string `json:"caseId"`
	Reason string `json:"reason,omitempty"`
}

// ReferToCourt refers the case to a hearing. An empty CourtCode keeps the
// court location already resolved for the case.
type ReferToCourt struct {
	CaseID      string `json:"caseId"`
	CourtCode   string `json:"courtCode,omitempty"`
	HearingDate string `json:"hearingDate,omitempty"`
}

func (ReceiveSubmission) CommandKind() string      { return KindReceiveSubmission }
func (ApplyCorrection) CommandKind() string        { return KindApplyCorrection }
func (AcceptCase) CommandKind() string             { return KindAcceptCase }
func (ApproveSummons) CommandKind() string         { return KindApproveSummons }
func (RejectSummons) CommandKind() string          { return KindRejectSummons }
func (AddMaterial) CommandKind() string            { return KindAddMaterial }
func (AddMaterialV2) CommandKind() string          { return KindAddMaterialV2 }
func (ExpireMaterial) CommandKind() string         { return KindExpireMaterial }
func (ExpirePendingMaterials) CommandKind() string { return KindExpirePendingMaterials }
func (ChangeDefendant) CommandKind() string        { return KindChangeDefendant }
func (AssignCase) CommandKind() string             { return KindAssignCase }
func (UnassignCase) CommandKind() string           { return KindUnassignCase }
func (EjectCase) CommandKind() string              { return KindEjectCase }
func (FilterCase) CommandKind() string             { return KindFilterCase }
func (ReferToCourt) CommandKind() string           { return KindReferToCourt }

func (c ReceiveSubmission) TargetCase() string      { return c.Case.CaseID }
func (c ApplyCorrection) TargetCase() string        { return c.CaseID }
func (c AcceptCase) TargetCase() string             { return c.CaseID }
func (c ApproveSummons) TargetCase() string         { return c.CaseID }
func (c RejectSummons) TargetCase() string          { return c.CaseID }
func (c AddMaterial) TargetCase() string            { return c.CaseID }
func (c AddMaterialV2) TargetCase() string          { return c.CaseID }
func (c ExpireMaterial) TargetCase() string         { return c.CaseID }
func (c ExpirePendingMaterials) TargetCase() string { return c.CaseID }
func (c ChangeDefendant) TargetCase() string        { return c.CaseID }
func (c AssignCase) TargetCase() string             { return c.CaseID }
func (c UnassignCase) TargetCase() string           { return c.CaseID }
func (c EjectCase) TargetCase() string              { return c.CaseID }
func (c FilterCase) TargetCase() string             { return c.CaseID }
func (c ReferToCourt) TargetCase() string           { return c.CaseID }

// DecodeCommand decodes a JSON command body of the given kind. Unknown
// fields are rejected.
func DecodeCommand(kind string, data []byte) (Command, error) {
	dec, ok := commandDecoders[kind]
	if !ok {
		return nil, fmt.Errorf("decode command %q: %w", kind, ErrUnknownCommand)
	}
	cmd, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode command %s: %w", kind, err)
	}
	return cmd, nil
}

// CommandKinds returns every registered command kind.
func CommandKinds() []string {
	return []string{
		KindReceiveSubmission, KindApplyCorrection, KindAcceptCase,
		KindApproveSummons, KindRejectSummons,
		KindAddMaterial, KindAddMaterialV2,
		KindExpireMaterial, KindExpirePendingMaterials,
		KindChangeDefendant,
		KindAssignCase, KindUnassignCase, KindEjectCase, KindFilterCase, KindReferToCourt,
	}
}

var commandDecoders = map[string]func([]byte) (Command, error){
	KindReceiveSubmission:      decodeAs[ReceiveSubmission],
	KindApplyCorrection:        decodeAs[ApplyCorrection],
	KindAcceptCase:             decodeAs[AcceptCase],
	KindApproveSummons:         decodeAs[ApproveSummons],
	KindRejectSummons:          decodeAs[RejectSummons],
	KindAddMaterial:            decodeAs[AddMaterial],
	KindAddMaterialV2:          decodeAs[AddMaterialV2],
	KindExpireMaterial:         decodeAs[ExpireMaterial],
	KindExpirePendingMaterials: decodeAs[ExpirePendingMaterials],
	KindChangeDefendant:        decodeAs[ChangeDefendant],
	KindAssignCase:             decodeAs[AssignCase],
	KindUnassignCase:           decodeAs[UnassignCase],
	KindEjectCase:              decodeAs[EjectCase],
	KindFilterCase:             decodeAs[FilterCase],
	KindReferToCourt:           decodeAs[ReferToCourt],
}

func decodeAs[T Command](data []byte) (Command, error) {
	var cmd T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
