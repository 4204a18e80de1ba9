// Package harness runs YAML intake scenarios through the real engine and
// compares the resulting event traces against golden files.
//
// A scenario is a list of commands dispatched in order against a fresh
// in-memory case log, with a settable clock and sequential correlation IDs so
// traces are byte-identical between runs:
//
//	name: concrete_scenario
//	description: SPI case received, duplicate submission, early material
//	now: 2024-03-01T09:00:00Z
//	steps:
//	  - command: ReceiveSubmission
//	    args: {externalId: X1, case: {...}, defendants: [...]}
//	    expect: [CaseReceived]
//	  - command: AcceptCase
//	    at: 2024-03-02T09:00:00Z
//	    args: {caseId: C1}
//	assertions:
//	  - type: final_state
//	    case: C1
//	    expect: {accepted: true, pending_materials: 0}
//
// Step args are the JSON form of the intake command; they are converted
// through encoding/json and intake.DecodeCommand, so unknown fields are
// rejected exactly as for commands arriving from upstream.
//
// After the last step every case is rebuilt from the log and replay-checked.
// A divergence fails the scenario.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
