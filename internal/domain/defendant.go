package domain

// Person is the identity of an individual defendant.
type Person struct {
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// Organisation is the identity of a corporate defendant.
type Organisation struct {
	Name string `json:"name"`
}

// Offence is a single charged offence.
type Offence struct {
	Code      string `json:"code"`
	Wording   string `json:"wording,omitempty"`
	StartDate string `json:"startDate,omitempty"`
}

// Hearing carries the first-hearing details supplied with a defendant.
type Hearing struct {
	CourtCode string `json:"courtCode"`
	Date      string `json:"date,omitempty"`
}

// Defendant is a person or organisation prosecuted on a case.
//
// ProsecutorDefendantRef is the prosecutor-assigned reference and the
// primary deduplication key. Exactly one of Person and Organisation is
// expected; validation rules report payloads that carry neither.
type Defendant struct {
	ID                     string         `json:"id"`
	ProsecutorDefendantRef string         `json:"prosecutorDefendantReference"`
	ASN                    string         `json:"asn,omitempty"`
	Person                 *Person        `json:"person,omitempty"`
	Organisation           *Organisation  `json:"organisation,omitempty"`
	InitiationCode         InitiationCode `json:"initiationCode,omitempty"`
	NationalityCode        string         `json:"nationalityCode,omitempty"`
	Offences               []Offence      `json:"offences,omitempty"`
	Hearing                *Hearing       `json:"hearing,omitempty"`
}

// Clone returns a deep copy of the defendant.
func (d Defendant) Clone() Defendant {
	out := d
	if d.Person != nil {
		p := *d.Person
		out.Person = &p
	}
	if d.Organisation != nil {
		o := *d.Organisation
		out.Organisation = &o
	}
	if d.Hearing != nil {
		h := *d.Hearing
		out.Hearing = &h
	}
	if d.Offences != nil {
		out.Offences = append([]Offence(nil), d.Offences...)
	}
	return out
}

// CloneDefendants deep-copies a defendant slice, preserving nil.
func CloneDefendants(ds []Defendant) []Defendant {
	if ds == nil {
		return nil
	}
	out := make([]Defendant, len(ds))
	for i, d := range ds {
		out[i] = d.Clone()
	}
	return out
}

// EffectiveInitiationCode returns the defendant's own initiation code, or
// the case-level code when the defendant does not carry one.
func (d Defendant) EffectiveInitiationCode(caseCode InitiationCode) InitiationCode {
	if d.InitiationCode != "" {
		return d.InitiationCode
	}
	return caseCode
}

// DefendantIDs returns the identifiers of ds in order.
func DefendantIDs(ds []Defendant) []string {
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	return ids
}
