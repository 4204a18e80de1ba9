// Package store provides SQLite-backed durable storage for case event logs.
//
// Each case owns an append-only stream of event envelopes keyed by
// (case_id, seq). The store is both the history source used to rebuild a
// case and the sink the engine appends decided events to.
//
// # Ordering and identity
//
//   - Reads order by seq ASC. recorded_at is informational only.
//   - Envelope IDs are content-addressed (see event.ID), so re-delivering an
//     already stored batch is a no-op rather than a duplicate.
//   - Appends carry the version the caller decided against. A mismatch
//     returns ErrConcurrentAppend and nothing is written.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
