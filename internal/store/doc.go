// Package store provides SQLite-backed durable storage for conformance runs.
//
// The store is an append-only log with:
//   - Suites: one execution of the conformance suite against a connector
//   - Runs: one connector invocation, with the state it was seeded with
//   - Messages: every message a run produced, in emission order
//   - Verdicts: the outcome of each scenario of a suite
//
// # Ordering
//
// Suites and runs carry a seq assigned by the store on insert; messages are
// numbered from 1 within their run. Every query orders by seq, never by
// timestamp, so a stored run re-reads exactly as it was produced.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Message fingerprints are computed by internal/canon over RFC 8785
// canonical JSON, so identical messages fingerprint identically across runs.
package store
