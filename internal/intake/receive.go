package intake

import (
	"github.com/roach88/caseintake/internal/dedup"
	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/rules"
)

func (d *decider) receive(cmd ReceiveSubmission) {
	sub := cmd.Submission
	c := sub.Case
	if domain.SingleDefendantChannels[c.Channel] && len(sub.Defendants) > 1 {
		return
	}
	defs := withIDs(sub.Defendants)

	fresh, dups := d.partition(c, defs)
	if len(dups) > 0 && c.Channel == domain.ChannelSPI {
		d.emit(event.ReceivedWithDuplicateDefendants{
			CaseID:            d.s.CaseID,
			ExternalID:        sub.ExternalID,
			ProsecutorCaseRef: c.ProsecutorCaseRef,
			Duplicates:        dups,
		})
	}

	switch {
	case d.s.Received || d.s.Rejected:
		if len(fresh) > 0 {
			d.receiveExisting(sub.ExternalID, sub.ApplicationID, c, fresh)
		}
	case d.s.Exists() && len(fresh) == 0:
		// Parked defendants submitted again.
	default:
		d.receiveNew(sub.ExternalID, sub.ApplicationID, c, fresh)
	}
}

// partition splits incoming defendants into those new to the case and those
// already known. On the structured police channel identity is decided by
// the dedup cascade against defendants on the same prosecutor case
// reference; elsewhere a repeated prosecutor defendant reference is simply
// not new. Either way a reference already on the case never becomes live
// twice.
func (d *decider) partition(c domain.CaseDetails, defs []domain.Defendant) (fresh, dups []domain.Defendant) {
	known := d.s.KnownDefendants()
	if c.Channel != domain.ChannelSPI {
		fresh, _ = splitKnownRefs(defs, known)
		return fresh, nil
	}
	if !domain.EqualFold(d.s.Case.ProsecutorCaseRef, c.ProsecutorCaseRef) {
		known = nil
	}
	cls := dedup.Classify(defs, known)
	fresh, sameRef := splitKnownRefs(cls.New, known)
	return fresh, append(cls.Duplicates, sameRef...)
}

// receiveNew validates a submission for a case that is not yet received and
// reports whether it passed.
func (d *decider) receiveNew(externalID, appID string, c domain.CaseDetails, defs []domain.Defendant) bool {
	sel := d.selection(c)
	res := sel.Case.Run(rules.CaseFact{Case: c, Defendants: defs, Reference: d.deps.Reference})
	caseCode := c.InitiationCode
	if len(defs) > 0 {
		caseCode = defs[0].EffectiveInitiationCode(c.InitiationCode)
	}
	for _, o := range d.checkDefendants(sel, c, defs, caseCode) {
		res = res.Merge(o.result)
	}

	if res.HasErrors() {
		d.emit(event.CaseRejected{
			CaseID:     d.s.CaseID,
			ExternalID: externalID,
			Case:       c,
			Defendants: defs,
			Problems:   res.Problems,
		})
		return false
	}
	if caseCode == domain.InitiationSummons {
		d.emit(d.summons().Park(d.s, d.applicationID(appID, externalID), externalID, c, defs, res.Problems)...)
		return true
	}

	annotations := d.enrich(c, defs)
	if len(res.Problems) > 0 {
		d.emit(event.CaseReceivedWithWarnings{
			CaseID:        d.s.CaseID,
			ExternalID:    externalID,
			ApplicationID: appID,
			Case:          c,
			Defendants:    defs,
			Warnings:      res.Problems,
			Annotations:   annotations,
		})
	} else {
		d.emit(event.CaseReceived{
			CaseID:        d.s.CaseID,
			ExternalID:    externalID,
			ApplicationID: appID,
			Case:          c,
			Defendants:    defs,
			Annotations:   annotations,
		})
	}
	return true
}

// receiveExisting handles new defendants arriving for a case that has
// already been received or rejected.
func (d *decider) receiveExisting(externalID, appID string, c domain.CaseDetails, defs []domain.Defendant) {
	if d.s.Rejected && !d.s.Received {
		sel := d.selection(c)
		var res rules.Result
		for _, o := range d.checkDefendants(sel, c, defs, "") {
			res = res.Merge(o.result)
		}
		d.emit(event.DefendantsReceivedNotAdded{
			CaseID:     d.s.CaseID,
			ExternalID: externalID,
			Defendants: defs,
			Problems:   res.Problems,
		})
		return
	}
	d.addDefendants(externalID, appID, c, defs)
}

// addDefendants validates defendants for a received case. Invalid ones are
// withheld, valid summons defendants are parked and the rest join the case.
func (d *decider) addDefendants(externalID, appID string, c domain.CaseDetails, defs []domain.Defendant) {
	sel := d.selection(c)
	caseRes := sel.Case.Run(rules.CaseFact{Case: c, Defendants: defs, Reference: d.deps.Reference, Existing: true})
	caseErrs := caseRes.Errors()

	var failed, parked, added []domain.Defendant
	var failedProblems, parkedWarnings []domain.Problem
	addedWarnings := caseRes.Warnings()
	for _, o := range d.checkDefendants(sel, c, defs, d.s.InitiationCode) {
		switch {
		case len(caseErrs) > 0 || o.result.HasErrors():
			failed = append(failed, o.defendant)
			failedProblems = append(failedProblems, o.result.Problems...)
		case o.defendant.EffectiveInitiationCode(c.InitiationCode) == domain.InitiationSummons:
			parked = append(parked, o.defendant)
			parkedWarnings = append(parkedWarnings, o.result.Problems...)
		default:
			added = append(added, o.defendant)
			addedWarnings = append(addedWarnings, o.result.Problems...)
		}
	}

	if len(failed) > 0 {
		d.emit(event.DefendantValidationFailed{
			CaseID:     d.s.CaseID,
			ExternalID: externalID,
			Defendants: failed,
			Problems:   append(domain.CloneProblems(caseErrs), failedProblems...),
		})
	}
	if len(parked) > 0 {
		d.emit(d.summons().Park(d.s, d.applicationID(appID, externalID), externalID, c, parked, parkedWarnings)...)
	}
	if len(added) > 0 {
		d.emit(event.DefendantsAdded{
			CaseID:      d.s.CaseID,
			ExternalID:  externalID,
			Defendants:  added,
			Warnings:    addedWarnings,
			Annotations: d.enrich(d.s.Case, added),
		})
	}
}

// changeDefendant replaces a live defendant after validating the
// replacement. A failed replacement is withheld for correction and the live
// defendant stays as it was.
func (d *decider) changeDefendant(nd domain.Defendant) {
	if !d.s.Received {
		return
	}
	cur, ok := d.s.Defendant(nd.ID)
	if !ok {
		return
	}
	if nd.ProsecutorDefendantRef == "" {
		nd.ProsecutorDefendantRef = cur.ProsecutorDefendantRef
	}
	if other, taken := d.s.DefendantByRef(nd.ProsecutorDefendantRef); taken && other.ID != nd.ID {
		return
	}

	sel := d.selection(d.s.Case)
	res := d.checkDefendants(sel, d.s.Case, []domain.Defendant{nd}, d.s.InitiationCode)[0].result
	if res.HasErrors() {
		d.emit(event.DefendantValidationFailed{
			CaseID:     d.s.CaseID,
			Defendants: []domain.Defendant{nd},
			Problems:   res.Problems,
		})
		return
	}
	d.emit(event.CaseDefendantChanged{CaseID: d.s.CaseID, Defendant: nd, Warnings: res.Problems})
}

type defendantOutcome struct {
	defendant domain.Defendant
	result    rules.Result
}

func (d *decider) checkDefendants(sel rules.Selection, c domain.CaseDetails, defs []domain.Defendant, caseCode domain.InitiationCode) []defendantOutcome {
	asOf := d.deps.now()
	out := make([]defendantOutcome, 0, len(defs))
	for _, def := range defs {
		out = append(out, defendantOutcome{
			defendant: def,
			result: sel.Defendant.Run(rules.DefendantFact{
				Case:               c,
				Defendant:          def,
				Reference:          d.deps.Reference,
				CaseInitiationCode: caseCode,
				AsOf:               asOf,
			}),
		})
	}
	return out
}

// withIDs copies defs, defaulting each missing id to the prosecutor
// defendant reference.
func withIDs(defs []domain.Defendant) []domain.Defendant {
	out := domain.CloneDefendants(defs)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = out[i].ProsecutorDefendantRef
		}
	}
	return out
}

// splitKnownRefs separates defendants whose prosecutor defendant reference
// is already among known.
func splitKnownRefs(defs, known []domain.Defendant) (fresh, seen []domain.Defendant) {
	for _, d := range defs {
		isKnown := false
		for _, k := range known {
			if d.ProsecutorDefendantRef != "" && domain.EqualFold(d.ProsecutorDefendantRef, k.ProsecutorDefendantRef) {
				isKnown = true
				break
			}
		}
		if isKnown {
			seen = append(seen, d)
		} else {
			fresh = append(fresh, d)
		}
	}
	return fresh, seen
}
