package pending

import (
	"time"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/rules"
	"github.com/roach88/caseintake/internal/state"
)

// Materials validates and expires materials for one case.
type Materials struct {
	Rules     rules.Pipeline[rules.MaterialFact]
	Reference domain.ReferenceData
}

// Receive records a newly arrived material. Materials for an accepted case
// are validated at once; everything else is parked. A reference that is
// already pending or resolved is ignored.
func (t Materials) Receive(s state.CaseState, m domain.Material) []event.Event {
	if m.Reference == "" || s.MaterialKnown(m.Reference) {
		return nil
	}
	if !s.Accepted {
		return []event.Event{event.MaterialPending{CaseID: s.CaseID, Material: m}}
	}
	return t.Resolve(s, m)
}

// Resolve validates m against the case and returns its terminal outcome,
// followed by a review request and an IDPC match where they apply.
func (t Materials) Resolve(s state.CaseState, m domain.Material) []event.Event {
	res := t.Rules.Run(rules.MaterialFact{
		Case:       s.Case,
		Defendants: s.Defendants,
		Material:   m,
		Reference:  t.Reference,
	})
	ids := targetDefendantIDs(s, m)

	var out []event.Event
	switch {
	case res.HasErrors():
		out = append(out, event.MaterialRejected{CaseID: s.CaseID, Material: m, Problems: res.Problems})
	case len(res.Problems) > 0:
		out = append(out, event.MaterialAddedWithWarnings{CaseID: s.CaseID, Material: m, DefendantIDs: ids, Warnings: res.Problems})
	default:
		out = append(out, event.MaterialAdded{CaseID: s.CaseID, Material: m, DefendantIDs: ids})
	}

	if review := rules.ReviewProblems(res.Problems); len(review) > 0 {
		out = append(out, event.DocumentReviewRequired{
			CaseID:               s.CaseID,
			MaterialRef:          m.Reference,
			ProsecutingAuthority: m.ProsecutingAuthority,
			Problems:             review,
		})
	}
	if !res.HasErrors() && domain.EqualFold(m.DocumentType, domain.DocumentTypeIDPC) {
		out = append(out, event.IDPCMatched{CaseID: s.CaseID, MaterialRef: m.Reference, DefendantIDs: ids})
	}
	return out
}

// Flush resolves every pending material in receipt order.
func (t Materials) Flush(s state.CaseState) []event.Event {
	var out []event.Event
	for _, m := range s.PendingMaterials {
		out = append(out, t.Resolve(s, m)...)
	}
	return out
}

// Expire rejects the pending material ref as expired at the given instant.
// It returns nil if ref is not pending.
func Expire(s state.CaseState, ref string, at time.Time) []event.Event {
	m, ok := s.PendingMaterial(ref)
	if !ok {
		return nil
	}
	return []event.Event{expired(s.CaseID, m, at)}
}

// ExpireStale rejects every pending material received at or before
// now-maxAge, in receipt order.
func ExpireStale(s state.CaseState, now time.Time, maxAge time.Duration) []event.Event {
	if maxAge <= 0 {
		return nil
	}
	cutoff := now.Add(-maxAge)
	var out []event.Event
	for _, m := range s.PendingMaterials {
		if !m.ReceivedAt.After(cutoff) {
			out = append(out, expired(s.CaseID, m, now))
		}
	}
	return out
}

func expired(caseID string, m domain.Material, at time.Time) event.MaterialRejected {
	return event.MaterialRejected{
		CaseID:   caseID,
		Material: m,
		Problems: []domain.Problem{domain.NewError(domain.CodeMaterialExpired,
			"materialReference", m.Reference,
			"expiredAt", at.UTC().Format(time.RFC3339))},
	}
}

// targetDefendantIDs maps the material's defendant references to live
// defendant ids. A material that names nobody belongs to every defendant.
func targetDefendantIDs(s state.CaseState, m domain.Material) []string {
	refs := m.TargetRefs()
	if len(refs) == 0 {
		return domain.DefendantIDs(s.Defendants)
	}
	var ids []string
	for _, ref := range refs {
		if d, ok := s.DefendantByRef(ref); ok {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
