package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/caseintake/internal/event"
)

// ErrConcurrentAppend is returned when the case log moved past the version
// the caller decided against.
var ErrConcurrentAppend = errors.New("concurrent append")

// Append writes envs to the log of caseID. expectedVersion is the seq of the
// last event the caller folded; envs must continue from expectedVersion+1.
//
// Re-appending a batch whose IDs are already stored succeeds without writing.
// Any other version mismatch fails with ErrConcurrentAppend.
func (s *Store) Append(ctx context.Context, caseID string, expectedVersion int64, envs []event.Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	for i, env := range envs {
		if env.CaseID != caseID {
			return fmt.Errorf("append %s: envelope %s belongs to case %q", caseID, env.ID, env.CaseID)
		}
		if want := expectedVersion + int64(i) + 1; env.Seq != want {
			return fmt.Errorf("append %s: envelope %s has seq %d, want %d", caseID, env.ID, env.Seq, want)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append %s: begin: %w", caseID, err)
	}
	defer tx.Rollback()

	version, err := versionOf(ctx, tx, caseID)
	if err != nil {
		return fmt.Errorf("append %s: %w", caseID, err)
	}
	if version != expectedVersion {
		stored, err := allStored(ctx, tx, envs)
		if err != nil {
			return fmt.Errorf("append %s: %w", caseID, err)
		}
		if stored {
			return nil
		}
		return fmt.Errorf("append %s: expected version %d, found %d: %w",
			caseID, expectedVersion, version, ErrConcurrentAppend)
	}

	recordedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, env := range envs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, case_id, seq, kind, payload, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, env.ID, env.CaseID, env.Seq, string(env.Kind), []byte(env.Payload), recordedAt)
		if err != nil {
			return fmt.Errorf("append %s seq=%d: %w", caseID, env.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append %s: commit: %w", caseID, err)
	}
	return nil
}

func versionOf(ctx context.Context, q querier, caseID string) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE case_id = ?`, caseID).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

func allStored(ctx context.Context, tx *sql.Tx, envs []event.Envelope) (bool, error) {
	for _, env := range envs {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, env.ID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("check %s: %w", env.ID, err)
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
