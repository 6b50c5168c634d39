package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/message"
)

// CursorField is the record field holding the simulated cursor.
const CursorField = "updated_at"

// DateEpoch is the date of cursor value 0 when cursors render as dates.
var DateEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Bug makes the simulated connector misbehave in one specific way.
type Bug int

const (
	BugNone Bug = iota

	// BugIgnoreState makes resumed reads start from the beginning.
	BugIgnoreState

	// BugLagState checkpoints one cursor value behind the last record.
	BugLagState

	// BugRewindOne resumes one cursor value before the saved state.
	BugRewindOne
)

// Stream is a simulated stream whose records carry cursors 1..Records.
type Stream struct {
	Name    string
	Records int
}

// Call is one recorded invocation. State is nil for a full read.
type Call struct {
	State jsontext.Value
}

// Connector is an in-memory incremental source. A resumed read emits every
// record whose cursor is at or after the saved cursor, so the saved record
// is re-emitted as real connectors commonly do.
//
// Thread-safety: Connector is safe for concurrent use; calls are recorded
// under a mutex.
type Connector struct {
	streams []Stream
	legacy  bool
	dates   bool
	every   int
	bug     Bug

	mu    sync.Mutex
	calls []Call
}

// ConnectorOption configures a Connector.
type ConnectorOption func(*Connector)

// WithStreams replaces the default single "users" stream of five records.
func WithStreams(streams ...Stream) ConnectorOption {
	return func(c *Connector) {
		c.streams = streams
	}
}

// WithLegacyState emits flat STATE messages holding every stream's cursor.
func WithLegacyState() ConnectorOption {
	return func(c *Connector) {
		c.legacy = true
	}
}

// WithDateCursors renders cursors as RFC 3339 dates, DateEpoch plus n days.
func WithDateCursors() ConnectorOption {
	return func(c *Connector) {
		c.dates = true
	}
}

// WithCheckpointEvery emits a STATE after every n records of a stream.
func WithCheckpointEvery(n int) ConnectorOption {
	return func(c *Connector) {
		c.every = n
	}
}

// WithBug injects a misbehavior.
func WithBug(b Bug) ConnectorOption {
	return func(c *Connector) {
		c.bug = b
	}
}

// NewConnector creates a simulated connector.
func NewConnector(opts ...ConnectorOption) *Connector {
	c := &Connector{
		streams: []Stream{{Name: "users", Records: 5}},
		every:   2,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.every < 1 {
		c.every = 1
	}
	return c
}

// Calls returns the invocations so far, in order.
func (c *Connector) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Read implements runner.Runner.
func (c *Connector) Read(ctx context.Context, _ jsontext.Value, cat *catalog.Catalog) ([]message.Message, error) {
	return c.read(ctx, cat, nil)
}

// ReadWithState implements runner.Runner.
func (c *Connector) ReadWithState(ctx context.Context, _ jsontext.Value, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error) {
	if state == nil {
		state = jsontext.Value(`{}`)
	}
	return c.read(ctx, cat, state)
}

// Catalog returns a configured catalog selecting every stream
// incrementally, with a JSON schema that matches the emitted records.
func (c *Connector) Catalog() (*catalog.Catalog, error) {
	cursorSchema := map[string]any{"type": "integer"}
	if c.dates {
		cursorSchema = map[string]any{"type": "string", "format": "date-time"}
	}

	streams := make([]map[string]any, 0, len(c.streams))
	for _, s := range c.streams {
		streams = append(streams, map[string]any{
			"stream": map[string]any{
				"name": s.Name,
				"json_schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        map[string]any{"type": "integer"},
						CursorField: cursorSchema,
					},
				},
				"supported_sync_modes": []string{"full_refresh", "incremental"},
			},
			"sync_mode":    "incremental",
			"cursor_field": []string{CursorField},
		})
	}
	raw, err := json.Marshal(map[string]any{"streams": streams}, json.Deterministic(true))
	if err != nil {
		return nil, err
	}
	return catalog.Decode(raw)
}

func (c *Connector) read(ctx context.Context, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.calls = append(c.calls, Call{State: state})
	c.mu.Unlock()

	from, err := c.startCursors(state)
	if err != nil {
		return nil, err
	}

	logMsg, err := message.NewOther(message.TypeLog, "log", map[string]any{"level": "INFO", "message": "simulated read"})
	if err != nil {
		return nil, err
	}
	log := []message.Message{logMsg}
	legacy := make(map[string]any)

	checkpoint := func(stream string, cursor int) error {
		if c.bug == BugLagState {
			cursor--
		}
		blob := map[string]any{CursorField: c.render(cursor)}
		var st *message.State
		var err error
		if c.legacy {
			legacy[stream] = blob
			st, err = message.NewLegacyState(legacy)
		} else {
			st, err = message.NewStreamState(stream, blob)
		}
		if err != nil {
			return err
		}
		log = append(log, st)
		return nil
	}

	for _, s := range c.streams {
		if cat != nil {
			if _, ok := cat.Stream(s.Name); !ok {
				continue
			}
		}

		start, resumed := from[s.Name]
		switch {
		case c.bug == BugIgnoreState:
			start, resumed = 0, false
		case c.bug == BugRewindOne && resumed:
			start--
		}

		last, emitted := start, 0
		for v := max(start, 1); v <= s.Records; v++ {
			rec, err := message.NewRecord(s.Name, map[string]any{"id": v, CursorField: c.render(v)}, 0)
			if err != nil {
				return nil, err
			}
			log = append(log, rec)
			last = v
			emitted++
			if emitted%c.every == 0 {
				if err := checkpoint(s.Name, last); err != nil {
					return nil, err
				}
			}
		}
		if emitted == 0 || emitted%c.every != 0 {
			if err := checkpoint(s.Name, last); err != nil {
				return nil, err
			}
		}
	}
	return log, nil
}

func (c *Connector) render(v int) any {
	if !c.dates {
		return v
	}
	return DateEpoch.AddDate(0, 0, v).Format(time.RFC3339)
}

// startCursors reads the saved cursor of every stream from a resumed read's
// state input: an array of per-stream envelopes or a flat object keyed by
// stream name.
func (c *Connector) startCursors(state jsontext.Value) (map[string]int, error) {
	from := make(map[string]int)
	blobs := make(map[string]jsontext.Value)
	switch state.Kind() {
	case 0:
		return from, nil
	case '[':
		var envelopes []message.State
		if err := json.Unmarshal(state, &envelopes); err != nil {
			return nil, fmt.Errorf("simulated connector: decode state: %w", err)
		}
		for _, env := range envelopes {
			if env.Stream != nil {
				blobs[env.Stream.Descriptor.Name] = env.Stream.State
			}
		}
	case '{':
		if err := json.Unmarshal(state, &blobs); err != nil {
			return nil, fmt.Errorf("simulated connector: decode state: %w", err)
		}
	default:
		return nil, fmt.Errorf("simulated connector: state must be an array or an object")
	}

	for name, blob := range blobs {
		if blob.Kind() != '{' {
			continue
		}
		var fields map[string]jsontext.Value
		if err := json.Unmarshal(blob, &fields); err != nil {
			return nil, fmt.Errorf("simulated connector: decode state of %s: %w", name, err)
		}
		raw, ok := fields[CursorField]
		if !ok {
			continue
		}
		v, err := parseCursor(raw)
		if err != nil {
			return nil, fmt.Errorf("simulated connector: state of %s: %w", name, err)
		}
		from[name] = v
	}
	return from, nil
}

func parseCursor(raw jsontext.Value) (int, error) {
	switch raw.Kind() {
	case '0':
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, err
		}
		return int(f), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return int(t.Sub(DateEpoch).Hours() / 24), nil
		}
		return strconv.Atoi(s)
	default:
		return 0, fmt.Errorf("unsupported cursor %s", raw)
	}
}
