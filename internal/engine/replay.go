package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/caseintake/internal/event"
	"github.com/roach88/caseintake/internal/state"
)

// Rebuild folds the stored log of caseID from an empty state.
func Rebuild(ctx context.Context, h History, caseID string) (state.CaseState, error) {
	envs, err := h.Load(ctx, caseID)
	if err != nil {
		return state.CaseState{}, fmt.Errorf("rebuild %s: %w", caseID, err)
	}
	events, err := event.DecodeAll(envs)
	if err != nil {
		return state.CaseState{}, fmt.Errorf("rebuild %s: %w", caseID, err)
	}
	return state.Fold(state.CaseState{}, events), nil
}

// ReplayReport describes one replay check.
type ReplayReport struct {
	CaseID  string
	Events  int
	Version int64
	// Gaps lists seq numbers missing from the log.
	Gaps []int64
	// Deterministic is true when two independent folds agree and the
	// folded version equals the number of stored events.
	Deterministic bool
}

// Verify folds the log of caseID twice, once in one pass and once event by
// event, and compares the results.
func Verify(ctx context.Context, h History, caseID string) (ReplayReport, error) {
	envs, err := h.Load(ctx, caseID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("verify %s: %w", caseID, err)
	}
	events, err := event.DecodeAll(envs)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("verify %s: %w", caseID, err)
	}

	report := ReplayReport{CaseID: caseID, Events: len(envs)}
	next := int64(1)
	for _, env := range envs {
		for ; next < env.Seq; next++ {
			report.Gaps = append(report.Gaps, next)
		}
		next = env.Seq + 1
	}

	first := state.Fold(state.CaseState{}, events)
	second := state.CaseState{}
	for _, ev := range events {
		second = state.Apply(second, ev)
	}
	report.Version = first.Version
	report.Deterministic = len(report.Gaps) == 0 &&
		first.Version == int64(len(envs)) &&
		reflect.DeepEqual(first, second)
	return report, nil
}
