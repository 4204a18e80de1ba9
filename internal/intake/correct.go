package intake

import (
	"errors"
	"fmt"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
)

var (
	errUnknownField     = errors.New("unknown field")
	errUnknownDefendant = errors.New("unknown defendant")
)

// correct merges corrections into whatever the case is holding back: the
// whole submission of a rejected case, or the withheld defendants of a
// received one. Once no error remains outstanding the case is reported as
// validated and resolved.
func (d *decider) correct(cmd ApplyCorrection) {
	if len(cmd.Corrections) == 0 {
		return
	}

	if held := d.s.Held; held != nil {
		c := held.Case
		defs := domain.CloneDefendants(held.Defendants)
		if err := applyCorrections(&c, defs, cmd.Corrections); err != nil {
			return
		}
		externalID := cmd.ExternalID
		if externalID == "" {
			externalID = held.ExternalID
		}
		if d.receiveNew(externalID, "", c, defs) {
			d.resolve(defs)
		}
		return
	}

	if !d.s.Received || len(d.s.Withheld) == 0 {
		return
	}
	byID := make(map[string]int)
	var defs []domain.Defendant
	externalID := cmd.ExternalID
	for _, fc := range cmd.Corrections {
		if fc.DefendantID == "" {
			return
		}
		if _, seen := byID[fc.DefendantID]; seen {
			continue
		}
		for _, w := range d.s.Withheld {
			if w.Defendant.ID == fc.DefendantID {
				byID[fc.DefendantID] = len(defs)
				defs = append(defs, w.Defendant.Clone())
				if externalID == "" {
					externalID = w.ExternalID
				}
				break
			}
		}
	}
	if len(defs) == 0 {
		return
	}
	if err := applyCorrections(nil, defs, cmd.Corrections); err != nil {
		return
	}

	var fresh []domain.Defendant
	for _, def := range defs {
		if _, live := d.s.Defendant(def.ID); live {
			d.changeDefendant(def)
		} else {
			fresh = append(fresh, def)
		}
	}
	// A corrected reference never takes over another defendant on the
	// case; such a defendant stays withheld as it was.
	fresh, _ = splitKnownRefs(fresh, excludeIDs(d.s.KnownDefendants(), byID))
	if len(fresh) > 0 {
		d.addDefendants(externalID, "", d.s.Case, fresh)
	}
	if len(d.s.OutstandingProblems()) == 0 {
		d.resolve(d.s.Defendants)
	}
}

// resolve reports a case whose errors are all corrected, located at the
// first defendant's hearing court.
func (d *decider) resolve(defs []domain.Defendant) {
	var loc domain.CourtLocation
	for _, def := range defs {
		if def.Hearing != nil && def.Hearing.CourtCode != "" {
			loc = d.courtLocation(def.Hearing.CourtCode)
			break
		}
	}
	d.emit(
		event.CaseValidationCompleted{CaseID: d.s.CaseID},
		event.CaseResolved{CaseID: d.s.CaseID, CourtLocation: loc},
	)
}

func excludeIDs(defs []domain.Defendant, ids map[string]int) []domain.Defendant {
	var out []domain.Defendant
	for _, def := range defs {
		if _, skip := ids[def.ID]; !skip {
			out = append(out, def)
		}
	}
	return out
}

// applyCorrections writes every correction into c and defs in place. A nil
// c rejects case-level corrections.
func applyCorrections(c *domain.CaseDetails, defs []domain.Defendant, cs []FieldCorrection) error {
	for _, fc := range cs {
		if fc.DefendantID == "" {
			if c == nil {
				return fmt.Errorf("case field %q: %w", fc.Field, errUnknownField)
			}
			if err := correctCase(c, fc); err != nil {
				return err
			}
			continue
		}
		idx := -1
		for i := range defs {
			if defs[i].ID == fc.DefendantID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%s: %w", fc.DefendantID, errUnknownDefendant)
		}
		if err := correctDefendant(&defs[idx], fc); err != nil {
			return err
		}
	}
	return nil
}

func correctCase(c *domain.CaseDetails, fc FieldCorrection) error {
	switch fc.Field {
	case "prosecutorCaseReference":
		c.ProsecutorCaseRef = fc.Value
	case "prosecutingAuthority":
		c.ProsecutingAuthority = fc.Value
	case "caseType":
		c.CaseType = domain.CaseType(fc.Value)
	case "initiationCode":
		c.InitiationCode = domain.InitiationCode(fc.Value)
	default:
		return fmt.Errorf("case field %q: %w", fc.Field, errUnknownField)
	}
	return nil
}

func correctDefendant(def *domain.Defendant, fc FieldCorrection) error {
	person := func() *domain.Person {
		if def.Person == nil {
			def.Person = &domain.Person{}
		}
		return def.Person
	}
	hearing := func() *domain.Hearing {
		if def.Hearing == nil {
			def.Hearing = &domain.Hearing{}
		}
		return def.Hearing
	}

	switch fc.Field {
	case "prosecutorDefendantReference":
		def.ProsecutorDefendantRef = fc.Value
	case "asn":
		def.ASN = fc.Value
	case "title":
		person().Title = fc.Value
	case "firstName":
		person().FirstName = fc.Value
	case "lastName":
		person().LastName = fc.Value
	case "dateOfBirth":
		person().DateOfBirth = fc.Value
	case "organisationName":
		def.Organisation = &domain.Organisation{Name: fc.Value}
	case "nationalityCode":
		def.NationalityCode = fc.Value
	case "initiationCode":
		def.InitiationCode = domain.InitiationCode(fc.Value)
	case "hearingCourtCode":
		hearing().CourtCode = fc.Value
	case "hearingDate":
		hearing().Date = fc.Value
	case "offenceCode", "offenceWording", "offenceStartDate":
		if fc.Index < 0 || fc.Index > len(def.Offences) {
			return fmt.Errorf("%s offence %d: %w", def.ID, fc.Index, errUnknownField)
		}
		if fc.Index == len(def.Offences) {
			def.Offences = append(def.Offences, domain.Offence{})
		}
		o := &def.Offences[fc.Index]
		switch fc.Field {
		case "offenceCode":
			o.Code = fc.Value
		case "offenceWording":
			o.Wording = fc.Value
		default:
			o.StartDate = fc.Value
		}
	default:
		return fmt.Errorf("%s field %q: %w", def.ID, fc.Field, errUnknownField)
	}
	return nil
}
