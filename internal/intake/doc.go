// Package intake is the case intake state machine.
//
// Handle takes the folded state of one case and one command and decides the
// events to emit. It deduplicates incoming defendants, runs the rule
// pipelines chosen by the caller's Selector, and drives the pending material
// and summons workflows. Each event is folded into the working state before
// the next decision is made, so a command that emits several events sees
// its own earlier output.
//
// Lifecycle:
//
//	Unknown -> Received -> Accepted
//	Unknown -> ReceivedWithErrors -(correction)-> Received
//	Unknown -> ParkedForApproval -(approve)-> Received
//	ParkedForApproval -(reject)-> Unknown
//
// Assigned, Ejected, Filtered and ReferredToCourt are overlays on top of the
// lifecycle.
//
// Validation failures are events, never errors. A command that breaks the
// upstream contract (accepting a case that was never received, several
// defendants on a single-defendant channel, correcting a field that does
// not exist) emits nothing.
//
// Handle performs no I/O. Reference data, enrichers and the rule selector
// are supplied by the caller in Deps.
package intake
