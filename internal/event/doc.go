// Package event defines the closed set of case-intake events.
//
// Events are the only durable output of the intake state machine. Each kind
// is a concrete struct implementing Event; the set is sealed by an
// unexported marker method so that state.Apply can switch exhaustively.
//
// Stored events travel as Envelopes: a kind, a per-case sequence number and
// a canonical JSON payload. Envelope IDs are content-addressed so that
// re-appending the same history is idempotent.
//
// Kinds that this build does not know decode to Unknown and are ignored by
// Apply, which keeps older binaries able to replay newer logs.
package event
