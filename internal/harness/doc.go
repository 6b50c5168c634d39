// Package harness runs the incremental conformance suite against a
// connector.
//
// The suite drives the connector through a Runner and checks the record and
// state messages it emits:
//
//   - two_sequential_reads: a full read must emit records and states, every
//     record must be at or before the final state, and a read resumed from
//     that state must only emit records at or after it.
//   - read_sequential_slices: the full read is partitioned into checkpoint
//     batches, and a sample of them is re-read from the state accumulated up
//     to each batch.
//   - state_with_abnormally_large_values: a read resumed from a state far in
//     the future must emit no records and at least one state.
//
// Scenarios run one after another. Each is bounded by the configured
// timeout; a timed out scenario is reported as an error with no partial
// result. Assertion failures are reported, never panicked.
//
// # Cursor values
//
// A record's cursor is read from the record data at the stream's cursor
// field. The matching state value is looked up first inside the stream's
// own state entry and then as an absolute path in the whole state
// document. Records without a resolvable state value are not compared.
//
// # Determinism
//
// Given a deterministic Runner the report is byte-for-byte reproducible,
// which the package tests rely on for golden snapshots.
package harness
