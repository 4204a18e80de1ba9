package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/caseintake/internal/event"
)

var recordedAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return recordedAt }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testEnvelopes encodes a small overlay history for caseID after lastSeq.
func testEnvelopes(t *testing.T, caseID string, lastSeq int64, events ...event.Event) []event.Envelope {
	t.Helper()
	if len(events) == 0 {
		events = []event.Event{
			event.CaseAssigned{CaseID: caseID, AssigneeID: "U1"},
			event.CaseUnassigned{CaseID: caseID},
		}
	}
	envs, err := event.EncodeAll(lastSeq, events)
	if err != nil {
		t.Fatalf("EncodeAll() failed: %v", err)
	}
	return envs
}
