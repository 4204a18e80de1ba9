package intake

import (
	"fmt"
	"time"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/pending"
	"github.com/roach88/caseintake/internal/rules"
	"github.com/roach88/caseintake/internal/state"
)

// Deps are the collaborators a decision reads. None of them is mutated.
type Deps struct {
	Reference domain.ReferenceData
	Rules     rules.Selector
	Enrichers []domain.Enricher
	// Now supplies the instant used for date rules and for materials and
	// expiry triggers that carry no timestamp. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// Handle decides the events for cmd against s and returns them together
// with the state they fold to.
func Handle(s state.CaseState, cmd Command, deps Deps) ([]event.Event, state.CaseState) {
	if cmd == nil || cmd.TargetCase() == "" {
		return nil, s
	}
	if s.CaseID != "" && s.CaseID != cmd.TargetCase() {
		return nil, s
	}
	d := &decider{s: s, deps: deps}
	if d.s.CaseID == "" {
		d.s.CaseID = cmd.TargetCase()
	}

	switch c := cmd.(type) {
	case ReceiveSubmission:
		d.receive(c)
	case ApplyCorrection:
		d.correct(c)
	case AcceptCase:
		d.accept(c)
	case ApproveSummons:
		d.emit(d.summons().Approve(d.s, c.ApplicationID)...)
	case RejectSummons:
		d.emit(d.summons().Reject(d.s, c.ApplicationID, c.Reason)...)
	case AddMaterial:
		d.addMaterial(c.Material)
	case AddMaterialV2:
		m := c.Material
		m.Shape = domain.MaterialShapeV2
		m.SubmissionID = c.SubmissionID
		m.DefendantRefs = c.DefendantRefs
		d.addMaterial(m)
	case ExpireMaterial:
		at := c.ExpiredAt
		if at.IsZero() {
			at = d.deps.now()
		}
		d.emit(pending.Expire(d.s, c.MaterialRef, at)...)
	case ExpirePendingMaterials:
		now := c.Now
		if now.IsZero() {
			now = d.deps.now()
		}
		d.emit(pending.ExpireStale(d.s, now, c.MaxAge)...)
	case ChangeDefendant:
		d.changeDefendant(c.Defendant)
	case AssignCase:
		if d.s.Received && c.AssigneeID != "" && c.AssigneeID != d.s.AssigneeID {
			d.emit(event.CaseAssigned{CaseID: d.s.CaseID, AssigneeID: c.AssigneeID})
		}
	case UnassignCase:
		if d.s.Received && d.s.Assigned {
			d.emit(event.CaseUnassigned{CaseID: d.s.CaseID})
		}
	case EjectCase:
		if d.s.Received && !d.s.Ejected {
			d.emit(event.CaseEjected{CaseID: d.s.CaseID, Reason: c.Reason})
		}
	case FilterCase:
		if d.s.Received && !d.s.Filtered {
			d.emit(event.CaseFiltered{CaseID: d.s.CaseID, Reason: c.Reason})
		}
	case ReferToCourt:
		d.referToCourt(c)
	}
	return d.out, d.s
}

// decider accumulates the events of one command.
type decider struct {
	s    state.CaseState
	deps Deps
	out  []event.Event
}

func (d *decider) emit(evs ...event.Event) {
	for _, ev := range evs {
		d.s = state.Apply(d.s, ev)
		d.out = append(d.out, ev)
	}
}

func (d *decider) selection(c domain.CaseDetails) rules.Selection {
	if d.deps.Rules == nil {
		return rules.Selection{}
	}
	return d.deps.Rules.Select(c.Channel, c.InitiationCode)
}

func (d *decider) materials() pending.Materials {
	return pending.Materials{
		Rules:     d.selection(d.s.Case).Material,
		Reference: d.deps.Reference,
	}
}

func (d *decider) summons() pending.Summons {
	return pending.Summons{Reference: d.deps.Reference, Enrichers: d.deps.Enrichers}
}

func (d *decider) enrich(c domain.CaseDetails, defs []domain.Defendant) map[string]string {
	return domain.Enrich(d.deps.Enrichers, domain.CaseWithReferenceData{
		Case:       c,
		Defendants: defs,
		Reference:  d.deps.Reference,
	})
}

// applicationID names a summons application. Submissions without one use
// their external id, then a per-case sequence.
func (d *decider) applicationID(appID, externalID string) string {
	switch {
	case appID != "":
		return appID
	case externalID != "":
		return externalID
	default:
		return fmt.Sprintf("%s-app-%d", d.s.CaseID, d.s.Version+1)
	}
}

func (d *decider) accept(c AcceptCase) {
	if !d.s.Received || d.s.Accepted {
		return
	}
	ids := domain.DefendantIDs(d.s.Defendants)
	if c.ExternalID != "" {
		routed, ok := d.s.ExternalIDs[c.ExternalID]
		if !ok {
			return
		}
		ids = append([]string(nil), routed...)
	}
	if len(d.s.Warnings) > 0 {
		d.emit(event.CaseAcceptedWithWarnings{
			CaseID:       d.s.CaseID,
			ExternalID:   c.ExternalID,
			DefendantIDs: ids,
			Warnings:     domain.CloneProblems(d.s.Warnings),
		})
	} else {
		d.emit(event.CaseAccepted{CaseID: d.s.CaseID, ExternalID: c.ExternalID, DefendantIDs: ids})
	}
	d.emit(d.materials().Flush(d.s)...)
}

func (d *decider) addMaterial(m domain.Material) {
	if m.Reference == "" {
		return
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = d.deps.now()
	}
	d.emit(d.materials().Receive(d.s, m)...)
}

func (d *decider) referToCourt(c ReferToCourt) {
	if !d.s.Received || d.s.ReferredToCourt {
		return
	}
	loc := d.s.CourtLocation
	if c.CourtCode != "" {
		loc = d.courtLocation(c.CourtCode)
	}
	d.emit(event.CaseReferredToCourt{CaseID: d.s.CaseID, CourtLocation: loc, HearingDate: c.HearingDate})
}

// courtLocation resolves an organisation unit code. Unknown codes resolve
// to a location carrying only the code.
func (d *decider) courtLocation(ouCode string) domain.CourtLocation {
	loc := domain.CourtLocation{OUCode: ouCode}
	if d.deps.Reference == nil || ouCode == "" {
		return loc
	}
	if ou, ok := d.deps.Reference.OrganisationUnit(ouCode); ok {
		loc.CourtCentreID = ou.CourtCentreID
		loc.Name = ou.Name
	}
	return loc
}
