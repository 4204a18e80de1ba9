package rules

import (
	"time"

	"github.com/roach88/caseintake/internal/domain"
)

// CaseFact is the input to case-level rules.
type CaseFact struct {
	Case       domain.CaseDetails
	Defendants []domain.Defendant
	Reference  domain.ReferenceData
	// Existing is true when the case was already received before this submission.
	Existing bool
}

// DefendantFact is the input to defendant-level rules.
type DefendantFact struct {
	Case      domain.CaseDetails
	Defendant domain.Defendant
	Reference domain.ReferenceData
	// CaseInitiationCode is the initiation code established by the case's
	// first defendant, or empty when the case has none yet.
	CaseInitiationCode domain.InitiationCode
	// AsOf is the instant date-based rules compare against. Zero disables them.
	AsOf time.Time
}

// MaterialFact is the input to material rules.
type MaterialFact struct {
	Case       domain.CaseDetails
	Defendants []domain.Defendant
	Material   domain.Material
	Reference  domain.ReferenceData
}

func (f DefendantFact) errorf(code string, kv ...string) domain.Problem {
	p := domain.NewError(code, kv...)
	p.DefendantID = f.Defendant.ID
	return p
}

func (f DefendantFact) warnf(code string, kv ...string) domain.Problem {
	p := domain.NewWarning(code, kv...)
	p.DefendantID = f.Defendant.ID
	return p
}
