// Package canon provides a JSON value model and RFC 8785 canonical
// serialization for connector wire messages.
//
// Connectors are free to reorder object keys and to re-emit identical
// checkpoints, so byte equality of the wire form is not value equality.
// Canonical bytes are: object keys sorted by UTF-16 code units, strings as
// given without HTML escaping, numbers in their shortest form. NFC folds
// Unicode composition for callers that want it.
//
// Fingerprints are SHA-256 over the canonical bytes with a domain prefix and a
// null separator:
//
//	SHA256(domain + 0x00 + canonical)
//
// Two messages (or checkpoint batches) are the same value exactly when their
// fingerprints in the same domain are equal.
package canon
