package pending

import (
	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/state"
)

// Summons parks, approves and rejects summons applications.
type Summons struct {
	Reference domain.ReferenceData
	Enrichers []domain.Enricher
}

// Park records a validated summons application. An application id that is
// already known is ignored. If the defendants were refused under an earlier
// application, the new record names it.
func (t Summons) Park(s state.CaseState, appID, externalID string, c domain.CaseDetails, defs []domain.Defendant, warnings []domain.Problem) []event.Event {
	if appID == "" || len(defs) == 0 {
		return nil
	}
	if _, ok := s.Application(appID); ok {
		return nil
	}
	return []event.Event{event.DefendantsParkedForApproval{
		CaseID:                s.CaseID,
		ExternalID:            externalID,
		ApplicationID:         appID,
		PreviousApplicationID: previousApplication(s, defs),
		Case:                  c,
		Defendants:            defs,
		Warnings:              warnings,
	}}
}

// Approve promotes a parked application's defendants into the case. A case
// not yet received is received with them; otherwise they are added.
func (t Summons) Approve(s state.CaseState, appID string) []event.Event {
	app, ok := s.Application(appID)
	if !ok || app.Status != state.ApplicationParked {
		return nil
	}
	c := app.Case
	if s.Received {
		c = s.Case
	}
	annotations := domain.Enrich(t.Enrichers, domain.CaseWithReferenceData{
		Case:       c,
		Defendants: app.Defendants,
		Reference:  t.Reference,
	})

	if s.Received {
		return []event.Event{event.DefendantsAdded{
			CaseID:        s.CaseID,
			ExternalID:    app.ExternalID,
			ApplicationID: app.ID,
			Defendants:    app.Defendants,
			Warnings:      app.Warnings,
			Annotations:   annotations,
		}}
	}
	if len(app.Warnings) > 0 {
		return []event.Event{event.CaseReceivedWithWarnings{
			CaseID:        s.CaseID,
			ExternalID:    app.ExternalID,
			ApplicationID: app.ID,
			Case:          c,
			Defendants:    app.Defendants,
			Warnings:      app.Warnings,
			Annotations:   annotations,
		}}
	}
	return []event.Event{event.CaseReceived{
		CaseID:        s.CaseID,
		ExternalID:    app.ExternalID,
		ApplicationID: app.ID,
		Case:          c,
		Defendants:    app.Defendants,
		Annotations:   annotations,
	}}
}

// Reject refuses a parked or approved application.
func (t Summons) Reject(s state.CaseState, appID, reason string) []event.Event {
	app, ok := s.Application(appID)
	if !ok || app.Status == state.ApplicationRejected {
		return nil
	}
	return []event.Event{event.SummonsRejected{
		CaseID:        s.CaseID,
		ApplicationID: app.ID,
		Defendants:    app.Defendants,
		Reason:        reason,
	}}
}

// previousApplication returns a rejected application sharing a defendant
// reference with defs, preferring the highest id.
func previousApplication(s state.CaseState, defs []domain.Defendant) string {
	rejected := s.ApplicationsWithStatus(state.ApplicationRejected)
	for i := len(rejected) - 1; i >= 0; i-- {
		for _, prev := range rejected[i].Defendants {
			for _, d := range defs {
				if domain.EqualFold(prev.ProsecutorDefendantRef, d.ProsecutorDefendantRef) {
					return rejected[i].ID
				}
			}
		}
	}
	return ""
}
