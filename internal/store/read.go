package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/caseintake/internal/event"
)

// Record is a stored envelope with the wall time it was appended.
type Record struct {
	event.Envelope
	RecordedAt time.Time
}

// Load returns the log of caseID ordered by seq. An unknown case yields an
// empty slice.
func (s *Store) Load(ctx context.Context, caseID string) ([]event.Envelope, error) {
	records, err := s.Records(ctx, caseID)
	if err != nil {
		return nil, err
	}
	envs := make([]event.Envelope, len(records))
	for i, r := range records {
		envs[i] = r.Envelope
	}
	return envs, nil
}

// Records is Load with recorded_at attached.
func (s *Store) Records(ctx context.Context, caseID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, seq, kind, payload, recorded_at
		FROM events
		WHERE case_id = ?
		ORDER BY seq ASC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", caseID, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r          Record
			kind       string
			payload    []byte
			recordedAt string
		)
		if err := rows.Scan(&r.ID, &r.CaseID, &r.Seq, &kind, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Kind = event.Kind(kind)
		r.Payload = json.RawMessage(payload)
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("event %s: parse recorded_at: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// LoadEvents loads and decodes the log of caseID.
func (s *Store) LoadEvents(ctx context.Context, caseID string) ([]event.Event, error) {
	envs, err := s.Load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return event.DecodeAll(envs)
}

// Version returns the seq of the last stored event of caseID, 0 if none.
func (s *Store) Version(ctx context.Context, caseID string) (int64, error) {
	return versionOf(ctx, s.db, caseID)
}

// ListCases returns every case ID with at least one event, sorted.
func (s *Store) ListCases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT case_id FROM events ORDER BY case_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// KindCounts returns the number of stored events per kind across all cases.
func (s *Store) KindCounts(ctx context.Context) (map[event.Kind]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query kind counts: %w", err)
	}
	defer rows.Close()

	counts := map[event.Kind]int64{}
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[event.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind counts: %w", err)
	}
	return counts, nil
}
