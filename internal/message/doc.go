// Package message defines the connector wire protocol as a closed set of Go
// types and decodes message logs from connector output.
//
// A connector invocation produces an ordered, append-only log of JSON lines:
//
//	{"type":"RECORD","record":{"stream":"users","data":{"id":1},"emitted_at":1700000000000}}
//	{"type":"STATE","state":{"type":"STREAM","stream":{"stream_descriptor":{"name":"users"},"stream_state":{"updated_at":"2024-01-01"}}}}
//	{"type":"STATE","state":{"data":{"users":{"updated_at":"2024-01-01"}}}}
//	{"type":"LOG","log":{"level":"INFO","message":"..."}}
//
// Decoded messages are one of *Record, *State or *Other. Callers switch on
// the concrete type; unknown message types decode to *Other and are never
// mistaken for records or states.
package message
