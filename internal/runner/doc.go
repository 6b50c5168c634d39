// Package runner invokes connectors and returns the messages they emit.
//
// Runner is the only suspending collaborator of the conformance suite. Exec
// launches a connector process with the standard read arguments; Recorder
// wraps any Runner and persists every invocation to the run store.
package runner
