package rules

import (
	"time"

	"github.com/roach88/caseintake/internal/domain"
)

// Problem codes raised by the built-in catalogue.
const (
	CodeCaseReferenceRequired        = "CASE_REFERENCE_REQUIRED"
	CodeNoDefendants                 = "NO_DEFENDANTS"
	CodeUnsupportedChannelInitiation = "UNSUPPORTED_CHANNEL_INITIATION"
	CodeCaseTypeMismatch             = "CASE_TYPE_MISMATCH"
	CodeDefendantIdentityMissing     = "DEFENDANT_IDENTITY_MISSING"
	CodeOffencesMissing              = "OFFENCES_MISSING"
	CodeOffenceCodeNotFound          = "OFFENCE_CODE_NOT_FOUND"
	CodeInvalidDateOfBirth           = "INVALID_DATE_OF_BIRTH"
	CodeDateOfBirthInFuture          = "DATE_OF_BIRTH_IN_FUTURE"
	CodeNationalityNotFound          = "NATIONALITY_NOT_FOUND"
	CodeInvalidASN                   = "INVALID_ASN"
	CodeOrganisationUnitNotFound     = "ORGANISATION_UNIT_NOT_FOUND"
	CodeInitiationCodeInconsistent   = "INITIATION_CODE_INCONSISTENT"
	CodeDocumentTypeNotSupported     = "DOCUMENT_TYPE_NOT_SUPPORTED"
	CodeDefendantNotFound            = "DEFENDANT_NOT_FOUND"
	CodeDefendantNotIdentified       = "DEFENDANT_NOT_IDENTIFIED"
	CodeProsecutingAuthorityMismatch = "PROSECUTING_AUTHORITY_MISMATCH"
)

// reviewCodes are material problems that need a caseworker to look at the
// document.
var reviewCodes = map[string]bool{
	CodeDefendantNotFound:            true,
	CodeProsecutingAuthorityMismatch: true,
}

// ReviewProblems returns the problems that require document review.
func ReviewProblems(ps []domain.Problem) []domain.Problem {
	var out []domain.Problem
	for _, p := range ps {
		if reviewCodes[p.Code] {
			out = append(out, p)
		}
	}
	return out
}

// Catalogue maps rule names to rule implementations.
type Catalogue struct {
	Case      map[string]Rule[CaseFact]
	Defendant map[string]Rule[DefendantFact]
	Material  map[string]Rule[MaterialFact]
}

// Builtin returns the built-in rule catalogue.
func Builtin() Catalogue {
	cat := Catalogue{
		Case:      map[string]Rule[CaseFact]{},
		Defendant: map[string]Rule[DefendantFact]{},
		Material:  map[string]Rule[MaterialFact]{},
	}
	for _, r := range []Rule[CaseFact]{
		{Name: "prosecutorCaseReferenceRequired", Check: prosecutorCaseReferenceRequired},
		{Name: "defendantsRequired", Check: defendantsRequired},
		{Name: "channelInitiationSupported", Check: channelInitiationSupported},
		{Name: "sjpCaseType", Check: sjpCaseType},
	} {
		cat.Case[r.Name] = r
	}
	for _, r := range []Rule[DefendantFact]{
		{Name: "defendantIdentityPresent", Check: defendantIdentityPresent},
		{Name: "offencesPresent", Check: offencesPresent},
		{Name: "offenceCodesKnown", Check: offenceCodesKnown},
		{Name: "dateOfBirthNotInFuture", Check: dateOfBirthNotInFuture},
		{Name: "nationalityKnown", Check: nationalityKnown},
		{Name: "asnFormat", Check: asnFormat},
		{Name: "hearingCourtKnown", Check: hearingCourtKnown},
		{Name: "initiationCodeConsistent", Check: initiationCodeConsistent},
	} {
		cat.Defendant[r.Name] = r
	}
	for _, r := range []Rule[MaterialFact]{
		{Name: "documentTypeSupported", Check: documentTypeSupported},
		{Name: "materialDefendantResolvable", Check: materialDefendantResolvable},
		{Name: "prosecutingAuthorityMatches", Check: prosecutingAuthorityMatches},
	} {
		cat.Material[r.Name] = r
	}
	return cat
}

func prosecutorCaseReferenceRequired(f CaseFact) []domain.Problem {
	if domain.Fold(f.Case.ProsecutorCaseRef) == "" {
		return []domain.Problem{domain.NewError(CodeCaseReferenceRequired, "caseId", f.Case.CaseID)}
	}
	return nil
}

func defendantsRequired(f CaseFact) []domain.Problem {
	if !f.Existing && len(f.Defendants) == 0 {
		return []domain.Problem{domain.NewError(CodeNoDefendants, "prosecutorCaseReference", f.Case.ProsecutorCaseRef)}
	}
	return nil
}

// Civil payloads must arrive on the civil channel and nowhere else.
func channelInitiationSupported(f CaseFact) []domain.Problem {
	ch, ic := f.Case.Channel, f.Case.InitiationCode
	bad := !domain.ValidChannels[ch] || !domain.ValidInitiationCodes[ic] ||
		(ch == domain.ChannelCivil) != (ic == domain.InitiationCivil)
	if bad {
		return []domain.Problem{domain.NewError(CodeUnsupportedChannelInitiation,
			"channel", string(ch), "initiationCode", string(ic))}
	}
	return nil
}

func sjpCaseType(f CaseFact) []domain.Problem {
	isSJP := f.Case.InitiationCode == domain.InitiationSJP
	switch {
	case isSJP && f.Case.CaseType == domain.CaseTypeCC,
		!isSJP && f.Case.CaseType == domain.CaseTypeSJP:
		return []domain.Problem{domain.NewError(CodeCaseTypeMismatch,
			"caseType", string(f.Case.CaseType), "initiationCode", string(f.Case.InitiationCode))}
	}
	return nil
}

func defendantIdentityPresent(f DefendantFact) []domain.Problem {
	d := f.Defendant
	hasPerson := d.Person != nil && domain.Fold(d.Person.LastName) != ""
	hasOrg := d.Organisation != nil && domain.Fold(d.Organisation.Name) != ""
	if !hasPerson && !hasOrg {
		return []domain.Problem{f.errorf(CodeDefendantIdentityMissing,
			"prosecutorDefendantReference", d.ProsecutorDefendantRef)}
	}
	return nil
}

func offencesPresent(f DefendantFact) []domain.Problem {
	if len(f.Defendant.Offences) == 0 {
		return []domain.Problem{f.errorf(CodeOffencesMissing)}
	}
	return nil
}

func offenceCodesKnown(f DefendantFact) []domain.Problem {
	if f.Reference == nil || len(f.Defendant.Offences) == 0 {
		return nil
	}
	codes := make([]string, 0, len(f.Defendant.Offences))
	for _, o := range f.Defendant.Offences {
		codes = append(codes, o.Code)
	}
	known := make(map[string]bool)
	for _, ref := range f.Reference.Offences(codes) {
		known[domain.Fold(ref.Code)] = true
	}
	var out []domain.Problem
	for _, o := range f.Defendant.Offences {
		if !known[domain.Fold(o.Code)] {
			out = append(out, f.errorf(CodeOffenceCodeNotFound, "offenceCode", o.Code))
		}
	}
	return out
}

func dateOfBirthNotInFuture(f DefendantFact) []domain.Problem {
	p := f.Defendant.Person
	if p == nil || p.DateOfBirth == "" {
		return nil
	}
	dob, err := time.Parse(time.DateOnly, p.DateOfBirth)
	if err != nil {
		return []domain.Problem{f.errorf(CodeInvalidDateOfBirth, "dateOfBirth", p.DateOfBirth)}
	}
	if !f.AsOf.IsZero() && dob.After(f.AsOf) {
		return []domain.Problem{f.errorf(CodeDateOfBirthInFuture, "dateOfBirth", p.DateOfBirth)}
	}
	return nil
}

func nationalityKnown(f DefendantFact) []domain.Problem {
	code := f.Defendant.NationalityCode
	if f.Reference == nil || code == "" {
		return nil
	}
	if _, ok := f.Reference.Nationality(code); !ok {
		return []domain.Problem{f.warnf(CodeNationalityNotFound, "nationalityCode", code)}
	}
	return nil
}

const maxASNLength = 21

func asnFormat(f DefendantFact) []domain.Problem {
	asn := f.Defendant.ASN
	if asn == "" {
		return nil
	}
	valid := len(asn) <= maxASNLength
	for _, r := range asn {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '/') {
			valid = false
			break
		}
	}
	if !valid {
		return []domain.Problem{f.warnf(CodeInvalidASN, "asn", asn)}
	}
	return nil
}

func hearingCourtKnown(f DefendantFact) []domain.Problem {
	h := f.Defendant.Hearing
	if f.Reference == nil || h == nil || h.CourtCode == "" {
		return nil
	}
	if _, ok := f.Reference.OrganisationUnit(h.CourtCode); !ok {
		return []domain.Problem{f.errorf(CodeOrganisationUnitNotFound, "ouCode", h.CourtCode)}
	}
	return nil
}

// Once a case has its first defendant, later defendants must carry the same
// initiation code.
func initiationCodeConsistent(f DefendantFact) []domain.Problem {
	if f.CaseInitiationCode == "" {
		return nil
	}
	got := f.Defendant.EffectiveInitiationCode(f.Case.InitiationCode)
	if got != f.CaseInitiationCode {
		return []domain.Problem{f.errorf(CodeInitiationCodeInconsistent,
			"initiationCode", string(got), "caseInitiationCode", string(f.CaseInitiationCode))}
	}
	return nil
}

func documentTypeSupported(f MaterialFact) []domain.Problem {
	if f.Reference == nil {
		return nil
	}
	if !f.Reference.DocumentTypeSupported(f.Material.DocumentType) {
		return []domain.Problem{domain.NewError(CodeDocumentTypeNotSupported,
			"documentType", f.Material.DocumentType)}
	}
	return nil
}

func materialDefendantResolvable(f MaterialFact) []domain.Problem {
	refs := f.Material.TargetRefs()
	if len(refs) == 0 {
		if len(f.Defendants) > 1 {
			return []domain.Problem{domain.NewWarning(CodeDefendantNotIdentified,
				"materialReference", f.Material.Reference)}
		}
		return nil
	}
	var out []domain.Problem
	for _, ref := range refs {
		found := false
		for _, d := range f.Defendants {
			if domain.EqualFold(d.ProsecutorDefendantRef, ref) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, domain.NewError(CodeDefendantNotFound, "defendantRef", ref))
		}
	}
	return out
}

func prosecutingAuthorityMatches(f MaterialFact) []domain.Problem {
	caseAuth, matAuth := f.Case.ProsecutingAuthority, f.Material.ProsecutingAuthority
	if caseAuth == "" || matAuth == "" || domain.EqualFold(caseAuth, matAuth) {
		return nil
	}
	return []domain.Problem{domain.NewWarning(CodeProsecutingAuthorityMismatch,
		"expected", caseAuth, "actual", matAuth)}
}
