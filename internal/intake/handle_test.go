package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/refdata"
	"github.com/roach88/caseintake/internal/rules"
	"github.com/roach88/caseintake/internal/state"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testDeps() Deps {
	return Deps{
		Reference: refdata.Default(),
		Rules:     rules.DefaultRegistry(),
		Enrichers: []domain.Enricher{refdata.CourtCentreEnricher()},
		Now:       func() time.Time { return now },
	}
}

// caseRun drives commands against one case and keeps every emitted event.
type caseRun struct {
	t       *testing.T
	deps    Deps
	s       state.CaseState
	history []event.Event
}

func newRun(t *testing.T) *caseRun {
	return &caseRun{t: t, deps: testDeps()}
}

func (r *caseRun) do(cmd Command) []event.Event {
	r.t.Helper()
	evs, s := Handle(r.s, cmd, r.deps)
	r.s = s
	r.history = append(r.history, evs...)
	return evs
}

func kinds(evs []event.Event) []event.Kind {
	out := make([]event.Kind, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Kind())
	}
	return out
}

func caseDetails(id string, ch domain.Channel, ic domain.InitiationCode) domain.CaseDetails {
	return domain.CaseDetails{
		CaseID:               id,
		ProsecutorCaseRef:    "A123",
		ProsecutingAuthority: "TFL",
		Channel:              ch,
		InitiationCode:       ic,
	}
}

func defendant(id, ref, asn, first, last string) domain.Defendant {
	return domain.Defendant{
		ID:                     id,
		ProsecutorDefendantRef: ref,
		ASN:                    asn,
		Person:                 &domain.Person{FirstName: first, LastName: last},
		Offences:               []domain.Offence{{Code: "TH68001"}},
		Hearing:                &domain.Hearing{CourtCode: "B01LY00"},
	}
}

func d1() domain.Defendant { return defendant("D1", "PD1", "A123", "John", "Smith") }
func d2() domain.Defendant { return defendant("D2", "PD2", "B456", "Jane", "Doe") }

func submit(c domain.CaseDetails, externalID string, defs ...domain.Defendant) ReceiveSubmission {
	return ReceiveSubmission{Submission: domain.Submission{ExternalID: externalID, Case: c, Defendants: defs}}
}

func material(ref, docType string) domain.Material {
	return domain.Material{
		Reference:            ref,
		ProsecutingAuthority: "TFL",
		DefendantRef:         "PD1",
		DocumentType:         docType,
		ReceivedAt:           now,
	}
}

func TestHandle_ConcreteScenario(t *testing.T) {
	r := newRun(t)
	c1 := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)

	evs := r.do(submit(c1, "X1", d1()))
	require.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(evs))
	received := evs[0].(event.CaseReceived)
	assert.Equal(t, "C1", received.CaseID)
	assert.Equal(t, []string{"D1"}, domain.DefendantIDs(received.Defendants))
	assert.Equal(t, "Lavender Hill Magistrates' Court", received.Annotations[refdata.AnnotationCourtName])

	evs = r.do(submit(c1, "X2", d1()))
	require.Equal(t, []event.Kind{event.KindReceivedWithDuplicateDefendants}, kinds(evs))
	assert.Equal(t, []string{"D1"}, domain.DefendantIDs(evs[0].(event.ReceivedWithDuplicateDefendants).Duplicates))
	assert.Len(t, r.s.Defendants, 1)

	evs = r.do(AddMaterial{CaseID: "C1", Material: material("M1", "SJPN")})
	require.Equal(t, []event.Kind{event.KindMaterialPending}, kinds(evs))
	assert.Equal(t, "M1", evs[0].(event.MaterialPending).Material.Reference)

	evs = r.do(AcceptCase{CaseID: "C1"})
	require.Equal(t, []event.Kind{event.KindCaseAccepted, event.KindMaterialAdded}, kinds(evs))
	assert.Equal(t, "M1", evs[1].(event.MaterialAdded).Material.Reference)
	assert.Empty(t, r.s.PendingMaterials)

	assert.Empty(t, r.do(ExpireMaterial{CaseID: "C1", MaterialRef: "M1", ExpiredAt: now.Add(time.Hour)}))

	assert.Equal(t, r.s, state.Fold(state.CaseState{}, r.history), "replaying the emitted history reproduces the state")
}

func TestHandle_OtherChannelsNeverReportDuplicates(t *testing.T) {
	for _, ch := range []domain.Channel{domain.ChannelMCC, domain.ChannelCPPI} {
		t.Run(string(ch), func(t *testing.T) {
			r := newRun(t)
			c := caseDetails("C1", ch, domain.InitiationCharge)
			require.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(r.do(submit(c, "X1", d1()))))

			assert.Empty(t, r.do(submit(c, "X2", d1())))
			assert.Len(t, r.s.Defendants, 1)
		})
	}
}

func TestHandle_SingleDefendantChannelContract(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelMCC, domain.InitiationCharge)
	assert.Empty(t, r.do(submit(c, "X1", d1(), d2())))
	assert.False(t, r.s.Received)
}

func TestHandle_DedupOnlyWithinProsecutorCaseReference(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	r.do(submit(c, "X1", d1()))

	other := c
	other.ProsecutorCaseRef = "B999"
	twin := defendant("D9", "PD9", "A123", "John", "Smith")
	evs := r.do(submit(other, "X2", twin))
	assert.Equal(t, []event.Kind{event.KindDefendantsAdded}, kinds(evs))
}

func TestHandle_RejectedCaseCorrected(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	bad := d1()
	bad.Offences = nil

	evs := r.do(submit(c, "X1", bad))
	require.Equal(t, []event.Kind{event.KindCaseRejected}, kinds(evs))
	rejected := evs[0].(event.CaseRejected)
	require.Len(t, rejected.Problems, 1)
	assert.Equal(t, rules.CodeOffencesMissing, rejected.Problems[0].Code)
	assert.Equal(t, "D1", rejected.Problems[0].DefendantID)

	evs = r.do(submit(c, "X2", d2()))
	require.Equal(t, []event.Kind{event.KindDefendantsReceivedNotAdded}, kinds(evs))
	assert.False(t, r.s.Received)

	assert.Empty(t, r.do(AcceptCase{CaseID: "C1"}), "a case never received cannot be accepted")
	assert.Empty(t, r.do(ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{{DefendantID: "D1", Field: "shoeSize", Value: "9"}}}))

	fix := ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{{DefendantID: "D1", Field: "offenceCode", Value: "TH68001"}}}
	evs = r.do(fix)
	require.Equal(t, []event.Kind{event.KindCaseReceived, event.KindCaseValidationCompleted, event.KindCaseResolved}, kinds(evs))
	assert.Equal(t, []string{"D1", "D2"}, domain.DefendantIDs(evs[0].(event.CaseReceived).Defendants))
	loc := evs[2].(event.CaseResolved).CourtLocation
	assert.Equal(t, "B01LY00", loc.OUCode)
	assert.Equal(t, "Lavender Hill Magistrates' Court", loc.Name)

	assert.True(t, r.s.Received)
	assert.True(t, r.s.ValidationCompleted)
	assert.Empty(t, r.do(fix), "repeating a correction is a no-op")
}

func TestHandle_CorrectionThatStillFails(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	bad := d1()
	bad.Offences = []domain.Offence{{Code: "XX00000"}}
	r.do(submit(c, "X1", bad))

	evs := r.do(ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{{DefendantID: "D1", Field: "offenceCode", Value: "YY00000"}}})
	require.Equal(t, []event.Kind{event.KindCaseRejected}, kinds(evs))
	assert.Equal(t, "YY00000", r.s.Held.Defendants[0].Offences[0].Code)
}

func TestHandle_WarningsCarryToAcceptance(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	d := d1()
	d.NationalityCode = "ZZZ"

	evs := r.do(submit(c, "X1", d))
	require.Equal(t, []event.Kind{event.KindCaseReceivedWithWarnings}, kinds(evs))

	evs = r.do(AcceptCase{CaseID: "C1"})
	require.Equal(t, []event.Kind{event.KindCaseAcceptedWithWarnings}, kinds(evs))
	assert.Equal(t, rules.CodeNationalityNotFound, evs[0].(event.CaseAcceptedWithWarnings).Warnings[0].Code)
	assert.Empty(t, r.do(AcceptCase{CaseID: "C1"}), "already accepted")
}

func TestHandle_SummonsParkApproveReject(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationSummons)
	d := d1()
	d.NationalityCode = "ZZZ"

	evs := r.do(submit(c, "X1", d))
	require.Equal(t, []event.Kind{event.KindDefendantsParkedForApproval}, kinds(evs), "parked regardless of warnings")
	parked := evs[0].(event.DefendantsParkedForApproval)
	assert.Equal(t, "X1", parked.ApplicationID)
	assert.False(t, r.s.Received)

	evs = r.do(submit(c, "X1", d))
	assert.Equal(t, []event.Kind{event.KindReceivedWithDuplicateDefendants}, kinds(evs), "parked defendants submitted again")
	assert.Empty(t, r.do(AcceptCase{CaseID: "C1"}))

	evs = r.do(ApproveSummons{CaseID: "C1", ApplicationID: "X1"})
	require.Equal(t, []event.Kind{event.KindCaseReceivedWithWarnings}, kinds(evs))
	approved := evs[0].(event.CaseReceivedWithWarnings)
	assert.Equal(t, parked.Defendants, approved.Defendants)
	assert.Equal(t, "X1", approved.ApplicationID)
	assert.True(t, r.s.Received)

	evs = r.do(RejectSummons{CaseID: "C1", ApplicationID: "X1", Reason: "refused"})
	require.Equal(t, []event.Kind{event.KindSummonsRejected}, kinds(evs))
	assert.False(t, r.s.Received)
	assert.Empty(t, r.s.Defendants)

	evs = r.do(ReceiveSubmission{Submission: domain.Submission{ExternalID: "X2", ApplicationID: "APP-2", Case: c, Defendants: []domain.Defendant{d}}})
	require.Equal(t, []event.Kind{event.KindDefendantsParkedForApproval}, kinds(evs))
	assert.Equal(t, "APP-2", evs[0].(event.DefendantsParkedForApproval).ApplicationID)
	assert.Equal(t, "X1", evs[0].(event.DefendantsParkedForApproval).PreviousApplicationID)

	assert.Equal(t, r.s, state.Fold(state.CaseState{}, r.history))
}

func TestHandle_RejectParkedApplication(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationSummons)
	r.do(submit(c, "X1", d1()))

	evs := r.do(RejectSummons{CaseID: "C1", ApplicationID: "X1"})
	require.Equal(t, []event.Kind{event.KindSummonsRejected}, kinds(evs))
	assert.False(t, r.s.Received)
	assert.Empty(t, r.do(ApproveSummons{CaseID: "C1", ApplicationID: "X1"}))
}

func TestHandle_DefendantsAddedAndWithheld(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	r.do(submit(c, "X1", d1()))

	evs := r.do(submit(c, "X2", d2()))
	require.Equal(t, []event.Kind{event.KindDefendantsAdded}, kinds(evs))

	d3 := defendant("D3", "PD3", "C789", "Ann", "Other")
	d3.InitiationCode = domain.InitiationSummons
	evs = r.do(submit(c, "X3", d3))
	require.Equal(t, []event.Kind{event.KindDefendantValidationFailed}, kinds(evs))
	assert.Equal(t, rules.CodeInitiationCodeInconsistent, evs[0].(event.DefendantValidationFailed).Problems[0].Code)
	require.Len(t, r.s.Withheld, 1)

	evs = r.do(ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{{DefendantID: "D3", Field: "initiationCode", Value: "C"}}})
	require.Equal(t, []event.Kind{event.KindDefendantsAdded, event.KindCaseValidationCompleted, event.KindCaseResolved}, kinds(evs))
	assert.Equal(t, []string{"D1", "D2", "D3"}, domain.DefendantIDs(r.s.Defendants))
	assert.Empty(t, r.s.Withheld)

	evs = r.do(AcceptCase{CaseID: "C1", ExternalID: "X2"})
	require.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(evs))
	assert.Equal(t, []string{"D2"}, evs[0].(event.CaseAccepted).DefendantIDs)
}

func TestHandle_CorrectionCannotReplaceLiveDefendant(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	r.do(submit(c, "X1", d1()))
	require.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(r.do(AcceptCase{CaseID: "C1"})))

	bad := d2()
	bad.Offences = nil
	require.Equal(t, []event.Kind{event.KindDefendantValidationFailed}, kinds(r.do(submit(c, "X2", bad))))

	evs := r.do(ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{
		{DefendantID: "D2", Field: "prosecutorDefendantReference", Value: "PD1"},
		{DefendantID: "D2", Field: "offenceCode", Value: "TH68001"},
	}})
	assert.Empty(t, evs)
	require.Equal(t, []string{"D1"}, domain.DefendantIDs(r.s.Defendants))
	assert.Equal(t, "Smith", r.s.Defendants[0].Person.LastName)
	require.Len(t, r.s.Withheld, 1)
	assert.Equal(t, "PD2", r.s.Withheld[0].Defendant.ProsecutorDefendantRef)

	evs = r.do(ApplyCorrection{CaseID: "C1", Corrections: []FieldCorrection{
		{DefendantID: "D2", Field: "prosecutorDefendantReference", Value: "PD3"},
		{DefendantID: "D2", Field: "offenceCode", Value: "TH68001"},
	}})
	require.Equal(t, []event.Kind{event.KindDefendantsAdded, event.KindCaseValidationCompleted, event.KindCaseResolved}, kinds(evs))
	assert.Equal(t, []string{"D1", "D2"}, domain.DefendantIDs(r.s.Defendants))
	assert.Empty(t, r.s.Withheld)
	assert.True(t, r.s.Accepted)

	assert.Equal(t, r.s, state.Fold(state.CaseState{}, r.history))
}

func TestHandle_SummonsRejectedAfterAcceptance(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationSummons)

	require.Equal(t, []event.Kind{event.KindDefendantsParkedForApproval}, kinds(r.do(submit(c, "X1", d1()))))
	require.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(r.do(ApproveSummons{CaseID: "C1", ApplicationID: "X1"})))
	require.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(r.do(AcceptCase{CaseID: "C1"})))
	require.Equal(t, []event.Kind{event.KindSummonsRejected}, kinds(r.do(RejectSummons{CaseID: "C1", ApplicationID: "X1", Reason: "refused"})))
	assert.False(t, r.s.Received)
	assert.False(t, r.s.Accepted)

	evs := r.do(AddMaterial{CaseID: "C1", Material: material("M1", "SJPN")})
	assert.Equal(t, []event.Kind{event.KindMaterialPending}, kinds(evs), "material waits for the case to be received again")

	assert.Equal(t, r.s, state.Fold(state.CaseState{}, r.history))
}

func TestHandle_NewCaseParkedByDefendantInitiationCode(t *testing.T) {
	r := newRun(t)
	c := caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge)
	d := d1()
	d.InitiationCode = domain.InitiationSummons

	evs := r.do(submit(c, "X1", d))
	require.Equal(t, []event.Kind{event.KindDefendantsParkedForApproval}, kinds(evs))
	assert.False(t, r.s.Received)

	evs = r.do(ApproveSummons{CaseID: "C1", ApplicationID: "X1"})
	require.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(evs))
	assert.Equal(t, domain.InitiationSummons, r.s.InitiationCode)
}

func TestHandle_AcceptUnknownExternalID(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	assert.Empty(t, r.do(AcceptCase{CaseID: "C1", ExternalID: "nope"}))
	assert.False(t, r.s.Accepted)
}

func TestHandle_PendingMaterialsFlushInReceiptOrder(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))

	for _, m := range []domain.Material{material("M1", "SJPN"), material("M2", "PHOTO"), material("M3", "PLEA")} {
		require.Equal(t, []event.Kind{event.KindMaterialPending}, kinds(r.do(AddMaterial{CaseID: "C1", Material: m})))
	}
	assert.Empty(t, r.do(AddMaterial{CaseID: "C1", Material: material("M1", "SJPN")}))

	evs := r.do(AcceptCase{CaseID: "C1"})
	assert.Equal(t, []event.Kind{
		event.KindCaseAccepted,
		event.KindMaterialAdded,
		event.KindMaterialRejected,
		event.KindMaterialAdded,
	}, kinds(evs))
	assert.Empty(t, r.s.PendingMaterials)
}

func TestHandle_MaterialBeforeCaseExists(t *testing.T) {
	r := newRun(t)
	evs := r.do(AddMaterialV2{CaseID: "C1", SubmissionID: "S1", Material: material("M1", "IDPC"), DefendantRefs: []string{"PD1"}})
	require.Equal(t, []event.Kind{event.KindMaterialPending}, kinds(evs))
	m := evs[0].(event.MaterialPending).Material
	assert.Equal(t, domain.MaterialShapeV2, m.Shape)
	assert.Equal(t, "S1", m.SubmissionID)

	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	evs = r.do(AcceptCase{CaseID: "C1"})
	assert.Equal(t, []event.Kind{event.KindCaseAccepted, event.KindMaterialAdded, event.KindIDPCMatched}, kinds(evs))
	assert.Equal(t, "M1", r.s.IDPCMaterialRef)
}

func TestHandle_ExpiryBeforeAcceptance(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	r.do(AddMaterial{CaseID: "C1", Material: material("M1", "SJPN")})

	evs := r.do(ExpireMaterial{CaseID: "C1", MaterialRef: "M1"})
	require.Equal(t, []event.Kind{event.KindMaterialRejected}, kinds(evs))
	assert.Equal(t, domain.CodeMaterialExpired, evs[0].(event.MaterialRejected).Problems[0].Code)
	assert.Empty(t, r.do(ExpireMaterial{CaseID: "C1", MaterialRef: "M1"}))

	evs = r.do(AcceptCase{CaseID: "C1"})
	assert.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(evs))
}

func TestHandle_ExpirePendingMaterials(t *testing.T) {
	r := newRun(t)
	old := material("OLD", "SJPN")
	old.ReceivedAt = now.Add(-48 * time.Hour)
	r.do(AddMaterial{CaseID: "C1", Material: old})
	r.do(AddMaterial{CaseID: "C1", Material: material("NEW", "SJPN")})

	evs := r.do(ExpirePendingMaterials{CaseID: "C1", MaxAge: 24 * time.Hour})
	require.Len(t, evs, 1)
	assert.Equal(t, "OLD", evs[0].(event.MaterialRejected).Material.Reference)
	require.Len(t, r.s.PendingMaterials, 1)
}

func TestHandle_DocumentReview(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	r.do(AcceptCase{CaseID: "C1"})

	m := material("M1", "SJPN")
	m.DefendantRef = "PD404"
	evs := r.do(AddMaterial{CaseID: "C1", Material: m})
	assert.Equal(t, []event.Kind{event.KindMaterialRejected, event.KindDocumentReviewRequired}, kinds(evs))
	assert.Equal(t, []string{"M1"}, r.s.ReviewMaterials)
}

func TestHandle_ChangeDefendant(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	r.do(AcceptCase{CaseID: "C1"})

	changed := d1()
	changed.Person.FirstName = "Jonathan"
	evs := r.do(ChangeDefendant{CaseID: "C1", Defendant: changed})
	require.Equal(t, []event.Kind{event.KindCaseDefendantChanged}, kinds(evs))

	broken := changed.Clone()
	broken.Offences = nil
	evs = r.do(ChangeDefendant{CaseID: "C1", Defendant: broken})
	require.Equal(t, []event.Kind{event.KindDefendantValidationFailed}, kinds(evs))
	live, _ := r.s.Defendant("D1")
	assert.Equal(t, "Jonathan", live.Person.FirstName)
	assert.Len(t, live.Offences, 1, "a failed change leaves the live defendant alone")

	assert.Empty(t, r.do(ChangeDefendant{CaseID: "C1", Defendant: defendant("D404", "PD404", "", "A", "B")}))
}

func TestHandle_Overlays(t *testing.T) {
	r := newRun(t)
	assert.Empty(t, r.do(AssignCase{CaseID: "C1", AssigneeID: "U1"}), "never received")
	assert.Empty(t, r.do(EjectCase{CaseID: "C1"}))

	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	assert.Equal(t, []event.Kind{event.KindCaseAssigned}, kinds(r.do(AssignCase{CaseID: "C1", AssigneeID: "U1"})))
	assert.Empty(t, r.do(AssignCase{CaseID: "C1", AssigneeID: "U1"}))
	assert.Equal(t, []event.Kind{event.KindCaseUnassigned}, kinds(r.do(UnassignCase{CaseID: "C1"})))
	assert.Empty(t, r.do(UnassignCase{CaseID: "C1"}))
	assert.Equal(t, []event.Kind{event.KindCaseFiltered}, kinds(r.do(FilterCase{CaseID: "C1", Reason: "test"})))
	assert.Empty(t, r.do(FilterCase{CaseID: "C1"}))

	evs := r.do(ReferToCourt{CaseID: "C1", CourtCode: "B01CN00", HearingDate: "2024-04-02"})
	require.Equal(t, []event.Kind{event.KindCaseReferredToCourt}, kinds(evs))
	assert.Equal(t, "Westminster Magistrates' Court", evs[0].(event.CaseReferredToCourt).CourtLocation.Name)

	assert.Equal(t, []event.Kind{event.KindCaseEjected}, kinds(r.do(EjectCase{CaseID: "C1"})))
	assert.True(t, r.s.Ejected)
}

func TestHandle_WrongCaseIsIgnored(t *testing.T) {
	r := newRun(t)
	r.do(submit(caseDetails("C1", domain.ChannelSPI, domain.InitiationCharge), "X1", d1()))
	evs, s := Handle(r.s, AcceptCase{CaseID: "C2"}, r.deps)
	assert.Empty(t, evs)
	assert.Equal(t, r.s, s)
}
