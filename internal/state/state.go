package state

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/canon"
	"github.com/as42sl/airbyte/internal/message"
)

// Shape is the wire shape of a state log.
type Shape int

const (
	// ShapeLegacy is a single flat blob for the whole sync.
	ShapeLegacy Shape = iota
	// ShapePerStream attributes each update to one stream.
	ShapePerStream
)

func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapePerStream:
		return "per-stream"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// DetectShape returns the shape implied by a single STATE message.
func DetectShape(st *message.State) Shape {
	if st.IsPerStream() {
		return ShapePerStream
	}
	return ShapeLegacy
}

var emptyObject = jsontext.Value(`{}`)

// Canonical is the latest known state of a sync, keyed by stream name.
//
// For ShapeLegacy the mapping is the top-level members of the flat blob,
// and Document returns the blob itself.
type Canonical struct {
	Shape Shape

	streams map[string]jsontext.Value
	order   []string
	legacy  jsontext.Value
}

// Lookup returns the state blob recorded for stream.
func (c Canonical) Lookup(stream string) (jsontext.Value, bool) {
	v, ok := c.streams[stream]
	return v, ok
}

// Streams returns the stream names with recorded state, in first-seen order.
func (c Canonical) Streams() []string {
	return slices.Clone(c.order)
}

// Len returns the number of streams with recorded state.
func (c Canonical) Len() int {
	return len(c.order)
}

// Document returns the whole state as a single JSON document. Per-stream
// state renders as an object keyed by stream name.
func (c Canonical) Document() (jsontext.Value, error) {
	if c.Shape == ShapeLegacy {
		if len(c.legacy) == 0 {
			return emptyObject, nil
		}
		return c.legacy, nil
	}
	raw, err := json.Marshal(c.streams, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("render state document: %w", err)
	}
	return raw, nil
}

// Input renders the state in the form a connector accepts when resuming a
// read: an array of per-stream STATE envelopes, or the flat legacy blob.
func (c Canonical) Input() (jsontext.Value, error) {
	if c.Shape == ShapeLegacy {
		return c.Document()
	}
	envelopes := make([]jsontext.Value, 0, len(c.order))
	for _, name := range c.order {
		env, err := message.StreamStateInput(name, c.streams[name])
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	raw, err := json.Marshal(envelopes)
	if err != nil {
		return nil, fmt.Errorf("render state input: %w", err)
	}
	return raw, nil
}

// Fingerprint returns a stable hash of the state's content and shape.
func (c Canonical) Fingerprint() (string, error) {
	doc, err := c.Document()
	if err != nil {
		return "", err
	}
	v, err := canon.Parse(doc)
	if err != nil {
		return "", fmt.Errorf("fingerprint state: %w", err)
	}
	return canon.Fingerprint(canon.DomainState, canon.Object{
		"shape": canon.String(c.Shape.String()),
		"state": v,
	})
}

// Normalize folds a non-empty sequence of STATE messages into its canonical
// state. The shape is taken from the last message.
//
// Normalize panics if states is empty; callers assert that a read produced
// at least one STATE message before normalizing.
func Normalize(states []*message.State) Canonical {
	if len(states) == 0 {
		panic("state: Normalize called without state messages")
	}
	acc := NewAccumulator(DetectShape(states[len(states)-1]))
	for _, st := range states {
		acc.Apply(st)
	}
	return acc.Snapshot()
}

// Accumulator folds STATE messages one at a time. It owns the running
// mapping; Snapshot hands out independent copies.
type Accumulator struct {
	shape   Shape
	streams map[string]jsontext.Value
	order   []string
	legacy  jsontext.Value
}

// NewAccumulator returns an empty accumulator for the given shape.
func NewAccumulator(shape Shape) *Accumulator {
	return &Accumulator{
		shape:   shape,
		streams: make(map[string]jsontext.Value),
	}
}

// Apply folds one STATE message. Under ShapePerStream it replaces the entry
// of the message's stream and skips unattributed messages. Under ShapeLegacy
// it replaces the whole state with the message's data.
func (a *Accumulator) Apply(st *message.State) {
	if a.shape == ShapePerStream {
		if !st.IsPerStream() {
			return
		}
		blob := st.Stream.State
		if len(blob) == 0 {
			blob = emptyObject
		}
		a.set(st.Stream.Descriptor.Name, blob)
		return
	}

	a.legacy = st.Data
	a.streams = make(map[string]jsontext.Value)
	a.order = a.order[:0]
	if len(st.Data) == 0 || st.Data.Kind() != '{' {
		return
	}
	var members map[string]jsontext.Value
	if err := json.Unmarshal(st.Data, &members); err != nil {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(members)) {
		a.set(name, members[name])
	}
}

func (a *Accumulator) set(name string, blob jsontext.Value) {
	if _, ok := a.streams[name]; !ok {
		a.order = append(a.order, name)
	}
	a.streams[name] = blob
}

// Snapshot returns the canonical state folded so far.
func (a *Accumulator) Snapshot() Canonical {
	return Canonical{
		Shape:   a.shape,
		streams: maps.Clone(a.streams),
		order:   slices.Clone(a.order),
		legacy:  a.legacy,
	}
}
