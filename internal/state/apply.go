package state

import (
	"maps"
	"sort"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
)

// Apply returns the state that results from applying ev to s.
// Unknown event kinds change nothing but the version.
func Apply(s CaseState, ev event.Event) CaseState {
	n := s.Clone()
	n.Version++
	if n.CaseID == "" {
		n.CaseID = ev.AggregateID()
	}

	switch e := ev.(type) {
	case event.CaseReceived:
		n.receive(e.ExternalID, e.ApplicationID, e.Case, e.Defendants, nil, e.Annotations)
	case event.CaseReceivedWithWarnings:
		n.receive(e.ExternalID, e.ApplicationID, e.Case, e.Defendants, e.Warnings, e.Annotations)
	case event.CaseRejected:
		n.Rejected = true
		n.Case = e.Case
		n.Held = &HeldSubmission{
			ExternalID: e.ExternalID,
			Case:       e.Case,
			Defendants: domain.CloneDefendants(e.Defendants),
			Problems:   domain.CloneProblems(e.Problems),
		}
	case event.ReceivedWithDuplicateDefendants:
		// Reported only; duplicates never join the case.
	case event.DefendantsAdded:
		n.addDefendants(e.ExternalID, e.ApplicationID, e.Defendants)
		n.Warnings = append(n.Warnings, domain.CloneProblems(e.Warnings)...)
		n.annotate(e.Annotations)
	case event.DefendantsReceivedNotAdded:
		if n.Held != nil {
			n.Held.Defendants = upsertByRef(n.Held.Defendants, e.Defendants)
			n.Held.Problems = append(n.Held.Problems, domain.CloneProblems(e.Problems)...)
		}
	case event.DefendantValidationFailed:
		n.withhold(e.ExternalID, e.Defendants, e.Problems)
		n.ValidationCompleted = false
	case event.DefendantsParkedForApproval:
		n.park(e)
	case event.SummonsRejected:
		n.rejectApplication(e)
	case event.CaseValidationCompleted:
		n.ValidationCompleted = true
	case event.CaseResolved:
		n.CourtLocation = e.CourtLocation
	case event.CaseAccepted:
		n.Accepted = true
	case event.CaseAcceptedWithWarnings:
		n.Accepted = true
	case event.MaterialPending:
		m := normaliseMaterial(e.Material)
		if !n.MaterialKnown(m.Reference) {
			n.PendingMaterials = append(n.PendingMaterials, m)
		}
	case event.MaterialAdded:
		n.resolveMaterial(e.Material.Reference)
	case event.MaterialAddedWithWarnings:
		n.resolveMaterial(e.Material.Reference)
	case event.MaterialRejected:
		n.resolveMaterial(e.Material.Reference)
	case event.DocumentReviewRequired:
		n.ReviewMaterials = appendUnique(n.ReviewMaterials, e.MaterialRef)
	case event.IDPCMatched:
		n.IDPCMaterialRef = e.MaterialRef
	case event.CaseDefendantChanged:
		n.changeDefendant(e.Defendant)
		n.Warnings = append(n.Warnings, domain.CloneProblems(e.Warnings)...)
	case event.CaseAssigned:
		n.Assigned = true
		n.AssigneeID = e.AssigneeID
	case event.CaseUnassigned:
		n.Assigned = false
		n.AssigneeID = ""
	case event.CaseEjected:
		n.Ejected = true
	case event.CaseFiltered:
		n.Filtered = true
	case event.CaseReferredToCourt:
		n.ReferredToCourt = true
		n.CourtLocation = e.CourtLocation
	default:
		// event.Unknown and kinds added after this build.
	}
	return n
}

// Fold applies events to s in order.
func Fold(s CaseState, events []event.Event) CaseState {
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}

func (n *CaseState) receive(externalID, appID string, c domain.CaseDetails, defs []domain.Defendant, warnings []domain.Problem, annotations map[string]string) {
	n.Received = true
	n.Rejected = false
	n.Held = nil
	n.Case = c
	n.addDefendants(externalID, appID, defs)
	n.Warnings = append(n.Warnings, domain.CloneProblems(warnings)...)
	n.annotate(annotations)
}

func (n *CaseState) addDefendants(externalID, appID string, defs []domain.Defendant) {
	if len(defs) > 0 && n.InitiationCode == "" {
		n.InitiationCode = defs[0].EffectiveInitiationCode(n.Case.InitiationCode)
	}
	n.Defendants = upsertByRef(n.Defendants, defs)
	n.Withheld = removeWithheld(n.Withheld, defs)
	if externalID != "" {
		if n.ExternalIDs == nil {
			n.ExternalIDs = make(map[string][]string)
		}
		for _, d := range defs {
			n.ExternalIDs[externalID] = appendUnique(n.ExternalIDs[externalID], d.ID)
		}
	}
	if app, ok := n.Applications[appID]; ok {
		app.Status = ApplicationApproved
		n.Applications[appID] = app
	}
}

func (n *CaseState) withhold(externalID string, defs []domain.Defendant, problems []domain.Problem) {
	for _, d := range defs {
		w := WithheldDefendant{ExternalID: externalID, Defendant: d.Clone()}
		for _, p := range problems {
			if p.DefendantID == "" || p.DefendantID == d.ID {
				w.Problems = append(w.Problems, p)
			}
		}
		replaced := false
		for i := range n.Withheld {
			if sameDefendant(n.Withheld[i].Defendant, d) {
				n.Withheld[i] = w
				replaced = true
				break
			}
		}
		if !replaced {
			n.Withheld = append(n.Withheld, w)
		}
	}
}

func (n *CaseState) park(e event.DefendantsParkedForApproval) {
	if n.Applications == nil {
		n.Applications = make(map[string]SummonsApplication)
	}
	if !n.Received {
		n.Case = e.Case
	}
	n.Applications[e.ApplicationID] = SummonsApplication{
		ID:         e.ApplicationID,
		ExternalID: e.ExternalID,
		PreviousID: e.PreviousApplicationID,
		Status:     ApplicationParked,
		Case:       e.Case,
		Defendants: domain.CloneDefendants(e.Defendants),
		Warnings:   domain.CloneProblems(e.Warnings),
	}
	n.Withheld = removeWithheld(n.Withheld, e.Defendants)
	if n.Held != nil {
		n.Held = nil
		n.Rejected = false
	}
}

func (n *CaseState) rejectApplication(e event.SummonsRejected) {
	app, ok := n.Applications[e.ApplicationID]
	if !ok {
		app = SummonsApplication{ID: e.ApplicationID, Defendants: domain.CloneDefendants(e.Defendants)}
	}
	app.Status = ApplicationRejected
	app.RejectionReason = e.Reason
	if n.Applications == nil {
		n.Applications = make(map[string]SummonsApplication)
	}
	n.Applications[e.ApplicationID] = app

	drop := make(map[string]bool, len(e.Defendants))
	for _, d := range e.Defendants {
		drop[d.ID] = true
	}
	live := n.Defendants[:0]
	for _, d := range n.Defendants {
		if !drop[d.ID] {
			live = append(live, d)
		}
	}
	n.Defendants = live
	if len(n.Defendants) == 0 {
		// Back to not received: the case can be received and accepted anew.
		n.Defendants = nil
		n.Received = false
		n.Accepted = false
		n.ValidationCompleted = false
		n.Warnings = nil
		n.InitiationCode = ""
	}
}

func (n *CaseState) changeDefendant(d domain.Defendant) {
	for i := range n.Defendants {
		if n.Defendants[i].ID == d.ID {
			n.Defendants[i] = d.Clone()
		}
	}
	n.Withheld = removeWithheld(n.Withheld, []domain.Defendant{d})
}

func (n *CaseState) resolveMaterial(ref string) {
	pending := n.PendingMaterials[:0]
	for _, m := range n.PendingMaterials {
		if m.Reference != ref {
			pending = append(pending, m)
		}
	}
	n.PendingMaterials = pending
	if len(n.PendingMaterials) == 0 {
		n.PendingMaterials = nil
	}
	if n.ResolvedMaterials == nil {
		n.ResolvedMaterials = make(map[string]bool)
	}
	n.ResolvedMaterials[ref] = true
}

func (n *CaseState) annotate(a map[string]string) {
	if len(a) == 0 {
		return
	}
	if n.Annotations == nil {
		n.Annotations = make(map[string]string, len(a))
	}
	maps.Copy(n.Annotations, a)
}

// Clone returns a deep copy of s.
func (s CaseState) Clone() CaseState {
	out := s
	out.Defendants = domain.CloneDefendants(s.Defendants)
	out.Warnings = domain.CloneProblems(s.Warnings)
	if s.Withheld != nil {
		out.Withheld = make([]WithheldDefendant, len(s.Withheld))
		for i, w := range s.Withheld {
			out.Withheld[i] = WithheldDefendant{
				ExternalID: w.ExternalID,
				Defendant:  w.Defendant.Clone(),
				Problems:   domain.CloneProblems(w.Problems),
			}
		}
	}
	if s.Held != nil {
		out.Held = &HeldSubmission{
			ExternalID: s.Held.ExternalID,
			Case:       s.Held.Case,
			Defendants: domain.CloneDefendants(s.Held.Defendants),
			Problems:   domain.CloneProblems(s.Held.Problems),
		}
	}
	if s.PendingMaterials != nil {
		out.PendingMaterials = make([]domain.Material, len(s.PendingMaterials))
		for i, m := range s.PendingMaterials {
			out.PendingMaterials[i] = m.Clone()
		}
	}
	out.ResolvedMaterials = maps.Clone(s.ResolvedMaterials)
	out.ReviewMaterials = append([]string(nil), s.ReviewMaterials...)
	if s.ReviewMaterials == nil {
		out.ReviewMaterials = nil
	}
	if s.Applications != nil {
		out.Applications = make(map[string]SummonsApplication, len(s.Applications))
		for id, app := range s.Applications {
			app.Defendants = domain.CloneDefendants(app.Defendants)
			app.Warnings = domain.CloneProblems(app.Warnings)
			out.Applications[id] = app
		}
	}
	if s.ExternalIDs != nil {
		out.ExternalIDs = make(map[string][]string, len(s.ExternalIDs))
		for k, ids := range s.ExternalIDs {
			out.ExternalIDs[k] = append([]string(nil), ids...)
		}
	}
	out.Annotations = maps.Clone(s.Annotations)
	return out
}

// upsertByRef replaces defendants sharing a prosecutor defendant reference
// and appends the rest, so a reference is never live twice.
func upsertByRef(dst, src []domain.Defendant) []domain.Defendant {
	for _, d := range src {
		replaced := false
		for i := range dst {
			if domain.EqualFold(dst[i].ProsecutorDefendantRef, d.ProsecutorDefendantRef) {
				dst[i] = d.Clone()
				replaced = true
				break
			}
		}
		if !replaced {
			dst = append(dst, d.Clone())
		}
	}
	return dst
}

// sameDefendant matches by id, or by reference for a resubmission that
// carries a new id. A correction may change the reference but not the id.
func sameDefendant(a, b domain.Defendant) bool {
	return a.ID == b.ID || domain.EqualFold(a.ProsecutorDefendantRef, b.ProsecutorDefendantRef)
}

func removeWithheld(ws []WithheldDefendant, defs []domain.Defendant) []WithheldDefendant {
	if len(ws) == 0 {
		return ws
	}
	out := ws[:0]
	for _, w := range ws {
		keep := true
		for _, d := range defs {
			if sameDefendant(w.Defendant, d) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normaliseMaterial(m domain.Material) domain.Material {
	m = m.Clone()
	m.ReceivedAt = m.ReceivedAt.UTC().Round(0)
	return m
}

func appendUnique(xs []string, x string) []string {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
