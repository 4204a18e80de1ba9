package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/caseintake/internal/domain"
	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/intake"
	"github.com/roach88/caseintake/internal/metrics"
	"github.com/roach88/caseintake/internal/refdata"
	"github.com/roach88/caseintake/internal/rules"
	"github.com/roach88/caseintake/internal/store"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testDeps() intake.Deps {
	return intake.Deps{
		Reference: refdata.Default(),
		Rules:     rules.DefaultRegistry(),
		Enrichers: []domain.Enricher{refdata.CourtCentreEnricher()},
		Now:       func() time.Time { return now },
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newEngine(t *testing.T, log Log, opts ...Option) *Engine {
	t.Helper()
	e := New(log, testDeps(), opts...)
	t.Cleanup(e.Stop)
	return e
}

func receive(caseID, ref string) intake.ReceiveSubmission {
	return intake.ReceiveSubmission{Submission: domain.Submission{
		ExternalID: caseID + "-X1",
		Case: domain.CaseDetails{
			CaseID:               caseID,
			ProsecutorCaseRef:    "REF-" + caseID,
			ProsecutingAuthority: "TFL",
			Channel:              domain.ChannelSPI,
			InitiationCode:       domain.InitiationCharge,
		},
		Defendants: []domain.Defendant{{
			ID:                     caseID + "-D1",
			ProsecutorDefendantRef: ref,
			Person:                 &domain.Person{FirstName: "John", LastName: "Smith"},
			Offences:               []domain.Offence{{Code: "TH68001"}},
			Hearing:                &domain.Hearing{CourtCode: "B01LY00"},
		}},
	}}
}

func kinds(evs []event.Event) []event.Kind {
	out := make([]event.Kind, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Kind())
	}
	return out
}

func TestEngine_DispatchPersists(t *testing.T) {
	s := openStore(t)
	e := newEngine(t, s, WithIDGenerator(NewFixedGenerator("cmd-1", "cmd-2")))
	ctx := context.Background()

	res, err := e.Dispatch(ctx, receive("C1", "PD1"))
	require.NoError(t, err)
	assert.Equal(t, "cmd-1", res.CorrelationID)
	assert.Equal(t, "C1", res.CaseID)
	assert.Equal(t, intake.KindReceiveSubmission, res.Command)
	assert.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(res.Events))
	require.Len(t, res.Envelopes, 1)
	assert.Equal(t, int64(1), res.Envelopes[0].Seq)
	assert.True(t, res.State.Received)

	res, err = e.Dispatch(ctx, intake.AcceptCase{CaseID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(res.Events))
	assert.Equal(t, int64(2), res.State.Version)

	stored, err := s.Load(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestEngine_NoopCommand(t *testing.T) {
	s := openStore(t)
	e := newEngine(t, s)

	res, err := e.Dispatch(context.Background(), intake.AcceptCase{CaseID: "never-received"})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Envelopes)

	cases, err := s.ListCases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestEngine_RestartReloadsHistory(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := New(s, testDeps())
	_, err := first.Dispatch(ctx, receive("C1", "PD1"))
	require.NoError(t, err)
	first.Stop()

	second := newEngine(t, s)
	after, err := second.State(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, after.Received)
	assert.Equal(t, int64(1), after.Version)
	assert.Equal(t, []string{"C1-D1"}, domain.DefendantIDs(after.Defendants))

	rebuilt, err := Rebuild(ctx, s, "C1")
	require.NoError(t, err)
	assert.Equal(t, rebuilt, after)

	// Re-submitting the same defendant is recognised from the reloaded state.
	res, err := second.Dispatch(ctx, receive("C1", "PD1"))
	require.NoError(t, err)
	assert.Equal(t, []event.Kind{event.KindReceivedWithDuplicateDefendants}, kinds(res.Events))
}

func TestEngine_DispatchAllKeepsPerCaseOrder(t *testing.T) {
	s := openStore(t)
	e := newEngine(t, s)

	cmds := []intake.Command{
		receive("C1", "PD1"),
		receive("C2", "PD2"),
		intake.AcceptCase{CaseID: "C1"},
		receive("C3", "PD3"),
		intake.AcceptCase{CaseID: "C2"},
	}
	results, err := e.DispatchAll(context.Background(), cmds)
	require.NoError(t, err)
	require.Len(t, results, len(cmds))

	assert.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(results[0].Events))
	assert.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(results[2].Events))
	assert.Equal(t, "C3", results[3].CaseID)
	assert.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(results[4].Events))
	assert.Equal(t, 3, e.Cases())

	cases, err := s.ListCases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2", "C3"}, cases)
}

func TestEngine_DispatchAllRejectsUntargeted(t *testing.T) {
	e := newEngine(t, openStore(t))

	_, err := e.DispatchAll(context.Background(), []intake.Command{intake.AcceptCase{}})
	assert.ErrorIs(t, err, ErrNoTargetCase)
}

func TestEngine_ConcurrentWriterIsDetected(t *testing.T) {
	s := openStore(t)
	e := newEngine(t, s)
	ctx := context.Background()

	_, err := e.Dispatch(ctx, receive("C1", "PD1"))
	require.NoError(t, err)

	// Another writer appends behind the actor's back.
	envs, err := event.EncodeAll(1, []event.Event{event.CaseAssigned{CaseID: "C1", AssigneeID: "U9"}})
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "C1", 1, envs))

	_, err = e.Dispatch(ctx, intake.AcceptCase{CaseID: "C1"})
	require.Error(t, err)
	assert.True(t, IsConcurrentAppend(err))
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrCodeAppendFailed, de.Code)

	// The actor reloads and the retry by the caller succeeds.
	res, err := e.Dispatch(ctx, intake.AcceptCase{CaseID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, []event.Kind{event.KindCaseAccepted}, kinds(res.Events))
	assert.Equal(t, "U9", res.State.AssigneeID)
	assert.Equal(t, int64(3), res.State.Version)
}

type brokenLog struct {
	loadErr error
}

func (b brokenLog) Load(context.Context, string) ([]event.Envelope, error) {
	return nil, b.loadErr
}

func (b brokenLog) Append(context.Context, string, int64, []event.Envelope) error {
	return nil
}

func TestEngine_LoadFailure(t *testing.T) {
	e := newEngine(t, brokenLog{loadErr: errors.New("disk gone")})

	_, err := e.Dispatch(context.Background(), receive("C1", "PD1"))
	require.Error(t, err)
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrCodeLoadFailed, de.Code)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestEngine_StopRejectsDispatch(t *testing.T) {
	e := New(openStore(t), testDeps())
	e.Stop()
	e.Stop()

	_, err := e.Dispatch(context.Background(), receive("C1", "PD1"))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_CancelledContext(t *testing.T) {
	e := newEngine(t, openStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Dispatch(ctx, receive("C1", "PD1"))
	assert.ErrorIs(t, err, context.Canceled)
}

// gatedLog holds Append until released so a test can cancel mid-command.
type gatedLog struct {
	*store.Store
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLog) Append(ctx context.Context, caseID string, expectedVersion int64, envs []event.Envelope) error {
	close(g.entered)
	<-g.release
	return g.Store.Append(context.WithoutCancel(ctx), caseID, expectedVersion, envs)
}

func TestEngine_CancelWhileAppendingReturnsOutcome(t *testing.T) {
	s := openStore(t)
	log := &gatedLog{Store: s, entered: make(chan struct{}), release: make(chan struct{})}
	e := newEngine(t, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		res  Result
		err  error
		done = make(chan struct{})
	)
	go func() {
		defer close(done)
		res, err = e.Dispatch(ctx, receive("C1", "PD1"))
	}()

	<-log.entered
	cancel()
	close(log.release)
	<-done

	require.NoError(t, err)
	assert.Equal(t, []event.Kind{event.KindCaseReceived}, kinds(res.Events))
	stored, err := s.Load(context.Background(), "C1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := New(openStore(t), testDeps(), WithMetrics(m))
	ctx := context.Background()

	_, err := e.Dispatch(ctx, receive("C1", "PD1"))
	require.NoError(t, err)
	_, err = e.Dispatch(ctx, intake.AssignCase{CaseID: "C2", AssigneeID: "U1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Commands.WithLabelValues(intake.KindReceiveSubmission, "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Commands.WithLabelValues(intake.KindAssignCase, "noop")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Events.WithLabelValues(string(event.KindCaseReceived))))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.ActiveActors))

	e.Stop()
	assert.Equal(t, 0.0, promtest.ToFloat64(m.ActiveActors))
}
