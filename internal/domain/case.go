package domain

// Channel identifies the upstream system that originated a submission.
type Channel string

const (
	// ChannelSPI is the structured police interface.
	ChannelSPI Channel = "SPI"
	// ChannelMCC is manual court-clerk entry.
	ChannelMCC Channel = "MCC"
	// ChannelCPPI is the cross-process interface.
	ChannelCPPI Channel = "CPPI"
	// ChannelCivil is the civil channel.
	ChannelCivil Channel = "CIVIL"
)

// ValidChannels defines allowed intake channels.
var ValidChannels = map[Channel]bool{
	ChannelSPI:   true,
	ChannelMCC:   true,
	ChannelCPPI:  true,
	ChannelCivil: true,
}

// SingleDefendantChannels lists channels whose payloads carry exactly one
// defendant. A multi-defendant payload on these channels is a contract breach.
var SingleDefendantChannels = map[Channel]bool{
	ChannelMCC: true,
}

// InitiationCode denotes how a prosecution was started.
type InitiationCode string

const (
	InitiationCharge  InitiationCode = "C"
	InitiationSummons InitiationCode = "S"
	InitiationCivil   InitiationCode = "O"
	InitiationSJP     InitiationCode = "J"
)

// ValidInitiationCodes defines allowed initiation codes.
var ValidInitiationCodes = map[InitiationCode]bool{
	InitiationCharge:  true,
	InitiationSummons: true,
	InitiationCivil:   true,
	InitiationSJP:     true,
}

// CaseType distinguishes single-justice-procedure cases from court cases.
type CaseType string

const (
	CaseTypeSJP     CaseType = "SJP"
	CaseTypeCC      CaseType = "CC"
	CaseTypeUnknown CaseType = "UNKNOWN"
)

// CaseDetails is the case-level part of a submission.
type CaseDetails struct {
	CaseID               string         `json:"caseId"`
	ProsecutorCaseRef    string         `json:"prosecutorCaseReference"`
	ProsecutingAuthority string         `json:"prosecutingAuthority,omitempty"`
	Channel              Channel        `json:"channel"`
	InitiationCode       InitiationCode `json:"initiationCode"`
	CaseType             CaseType       `json:"caseType,omitempty"`
}

// Submission is a single message received from an upstream channel.
//
// ExternalID is the upstream correlation identifier. It indexes the
// defendants the submission produced so that later corrections and
// acceptance acknowledgements can be routed back to them.
type Submission struct {
	ExternalID    string      `json:"externalId"`
	ApplicationID string      `json:"applicationId,omitempty"`
	Case          CaseDetails `json:"case"`
	Defendants    []Defendant `json:"defendants"`
}

// CourtLocation is the resolved hearing venue for a case.
type CourtLocation struct {
	OUCode        string `json:"ouCode"`
	CourtCentreID string `json:"courtCentreId,omitempty"`
	Name          string `json:"name,omitempty"`
}
