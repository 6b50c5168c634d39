// Package schema resolves cursor fields against a stream's JSON schema and
// extracts cursor values from JSON documents.
//
// Schemas and documents are loaded into CUE values, so lookups walk a typed
// value tree instead of untyped maps and numbers keep their literal form.
package schema
