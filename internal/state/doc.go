// Package state normalizes connector checkpoints into one canonical mapping
// from stream name to that stream's state blob.
//
// Connectors emit state in one of two shapes. The per-stream shape attributes
// every STATE message to a single stream, so the latest state of the whole
// sync is assembled by folding the messages left to right. The legacy shape
// carries one undifferentiated blob, so only the final message matters.
//
// The shape of a log is decided by its last STATE message. The two shapes are
// never mixed: once a log is per-stream, unattributed messages are ignored.
package state
