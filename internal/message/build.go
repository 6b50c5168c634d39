package message

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// NewRecord builds a RECORD message for stream from any JSON-marshalable data.
func NewRecord(stream string, data any, emittedAt int64) (*Record, error) {
	body := map[string]any{"stream": stream, "data": data}
	if emittedAt != 0 {
		body["emitted_at"] = emittedAt
	}
	msg, err := build(TypeRecord, "record", body)
	if err != nil {
		return nil, err
	}
	return msg.(*Record), nil
}

// NewStreamState builds a per-stream STATE message. A nil state omits the
// stream_state field.
func NewStreamState(stream string, state any) (*State, error) {
	envelope := map[string]any{
		"stream_descriptor": map[string]any{"name": stream},
	}
	if state != nil {
		envelope["stream_state"] = state
	}
	msg, err := build(TypeState, "state", map[string]any{
		"type":   string(StateTypeStream),
		"stream": envelope,
	})
	if err != nil {
		return nil, err
	}
	return msg.(*State), nil
}

// NewLegacyState builds a flat STATE message carrying data for all streams.
func NewLegacyState(data any) (*State, error) {
	msg, err := build(TypeState, "state", map[string]any{"data": data})
	if err != nil {
		return nil, err
	}
	return msg.(*State), nil
}

// NewOther builds a message of a type this engine does not interpret.
func NewOther(t Type, payloadKey string, payload any) (*Other, error) {
	msg, err := build(t, payloadKey, payload)
	if err != nil {
		return nil, err
	}
	return msg.(*Other), nil
}

func build(t Type, key string, payload any) (Message, error) {
	raw, err := json.Marshal(map[string]any{"type": string(t), key: payload}, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("build %s message: %w", t, err)
	}
	return Decode(raw)
}

// StreamStateInput renders a per-stream envelope as a standalone STATE
// payload, the form a connector accepts in its --state file.
func StreamStateInput(name string, state jsontext.Value) (jsontext.Value, error) {
	envelope := map[string]any{
		"stream_descriptor": map[string]any{"name": name},
	}
	if len(state) > 0 {
		envelope["stream_state"] = state
	}
	raw, err := json.Marshal(map[string]any{
		"type":   string(StateTypeStream),
		"stream": envelope,
	}, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("render state for stream %q: %w", name, err)
	}
	return jsontext.Value(raw), nil
}
