package domain

// OffenceRef is a row of the offence reference table.
type OffenceRef struct {
	Code        string `json:"code" yaml:"code"`
	Title       string `json:"title" yaml:"title"`
	ModeOfTrial string `json:"modeOfTrial,omitempty" yaml:"mode_of_trial,omitempty"`
}

// OrganisationUnit is a court organisational unit.
type OrganisationUnit struct {
	OUCode        string `json:"ouCode" yaml:"ou_code"`
	CourtCentreID string `json:"courtCentreId" yaml:"court_centre_id"`
	Name          string `json:"name" yaml:"name"`
}

// Nationality is a row of the nationality reference table.
type Nationality struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// ReferenceData looks up the reference rows used by rule evaluation.
// Implementations are supplied by the caller per invocation and are never
// mutated by the core.
type ReferenceData interface {
	Offences(codes []string) []OffenceRef
	OrganisationUnit(ouCode string) (OrganisationUnit, bool)
	Nationality(code string) (Nationality, bool)
	DocumentTypeSupported(documentType string) bool
}

// CaseWithReferenceData is the value handed to enrichers before a case or
// defendant set is finalized into an event.
type CaseWithReferenceData struct {
	Case        CaseDetails
	Defendants  []Defendant
	Reference   ReferenceData
	Annotations map[string]string
}

// Enricher reads a case with its reference data and may add annotations.
// The core does not depend on what enrichers add.
type Enricher interface {
	Enrich(c CaseWithReferenceData) map[string]string
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(c CaseWithReferenceData) map[string]string

// Enrich calls f(c).
func (f EnricherFunc) Enrich(c CaseWithReferenceData) map[string]string {
	return f(c)
}

// Enrich runs enrichers in order over c and merges their annotations.
// Later enrichers overwrite keys set by earlier ones. Each enricher sees the
// annotations accumulated so far. Returns nil when nothing was added.
func Enrich(enrichers []Enricher, c CaseWithReferenceData) map[string]string {
	var out map[string]string
	for _, e := range enrichers {
		c.Annotations = out
		for k, v := range e.Enrich(c) {
			if out == nil {
				out = make(map[string]string)
			}
			out[k] = v
		}
	}
	return out
}
