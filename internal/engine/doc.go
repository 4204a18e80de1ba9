// Package engine runs the intake state machine against the durable case log.
//
// # Architecture
//
// Per-case actors:
// Every case ID gets one actor goroutine with a FIFO mailbox. The actor owns
// the folded state of its case and is the only writer of that case's log, so
// commands for one case are decided strictly one at a time and each decision
// sees the events of the previous one. Actors for different cases share
// nothing and run in parallel.
//
// Command processing flow:
//  1. Dispatch enqueues the command on the case actor's mailbox
//  2. On first use the actor loads the case log and folds it
//  3. intake.Handle decides the events
//  4. Events are encoded and appended with the folded version as the
//     expected version
//  5. On success the actor adopts the new state; on failure it forgets its
//     state and reloads before the next command
//
// Failures are logged and returned to the caller. Nothing is retried.
//
// Replay:
// Rebuild and Verify fold a stored log without an actor. Folding is pure, so
// two folds of the same log must produce equal states.
package engine
