package message

import (
	"github.com/go-json-experiment/json/jsontext"
)

// Type is the wire discriminant of a message.
type Type string

const (
	TypeRecord           Type = "RECORD"
	TypeState            Type = "STATE"
	TypeLog              Type = "LOG"
	TypeSpec             Type = "SPEC"
	TypeConnectionStatus Type = "CONNECTION_STATUS"
	TypeCatalog          Type = "CATALOG"
	TypeTrace            Type = "TRACE"
	TypeControl          Type = "CONTROL"
)

// StateType distinguishes state envelope shapes.
// An empty StateType is the legacy flat shape.
type StateType string

const (
	StateTypeLegacy StateType = "LEGACY"
	StateTypeStream StateType = "STREAM"
	StateTypeGlobal StateType = "GLOBAL"
)

// Message is a sealed interface. Only *Record, *State and *Other implement it.
type Message interface {
	// Type returns the wire discriminant.
	Type() Type

	// Raw returns the message exactly as it appeared on the wire.
	Raw() jsontext.Value

	message()
}

// StreamDescriptor identifies a stream. Name is the join key between the
// catalog and message data.
type StreamDescriptor struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// Record is a single row emitted for a stream.
type Record struct {
	Stream    string         `json:"stream"`
	Namespace string         `json:"namespace,omitempty"`
	Data      jsontext.Value `json:"data"`
	EmittedAt int64          `json:"emitted_at,omitzero"`

	raw jsontext.Value
}

func (*Record) Type() Type            { return TypeRecord }
func (r *Record) Raw() jsontext.Value { return r.raw }
func (*Record) message()              {}

// StreamState is the per-stream envelope of a STREAM state message.
type StreamState struct {
	Descriptor StreamDescriptor `json:"stream_descriptor"`
	State      jsontext.Value   `json:"stream_state,omitempty"`
}

// State is a checkpoint. It carries either a per-stream envelope or a flat
// data blob (legacy shape), occasionally both.
type State struct {
	StateType StateType      `json:"type,omitempty"`
	Stream    *StreamState   `json:"stream,omitempty"`
	Data      jsontext.Value `json:"data,omitempty"`

	raw jsontext.Value
}

func (*State) Type() Type            { return TypeState }
func (s *State) Raw() jsontext.Value { return s.raw }
func (*State) message()              {}

// IsPerStream reports whether the state attributes its blob to one stream.
func (s *State) IsPerStream() bool {
	return s.StateType == StateTypeStream && s.Stream != nil
}

// Other is any message this engine does not interpret.
type Other struct {
	Kind Type

	raw jsontext.Value
}

func (o *Other) Type() Type          { return o.Kind }
func (o *Other) Raw() jsontext.Value { return o.raw }
func (*Other) message()              {}
