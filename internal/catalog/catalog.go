package catalog

import (
	"fmt"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// SyncMode is how a stream is read.
type SyncMode string

const (
	SyncModeFullRefresh SyncMode = "full_refresh"
	SyncModeIncremental SyncMode = "incremental"
)

// Stream is a stream as discovered from the connector.
type Stream struct {
	Name                string         `json:"name"`
	Namespace           string         `json:"namespace,omitzero"`
	JSONSchema          jsontext.Value `json:"json_schema,omitzero"`
	SupportedSyncModes  []SyncMode     `json:"supported_sync_modes,omitzero"`
	SourceDefinedCursor bool           `json:"source_defined_cursor,omitzero"`
	DefaultCursorField  []string       `json:"default_cursor_field,omitzero"`

	Unknown jsontext.Value `json:",unknown"`
}

// ConfiguredStream is a stream selected for a sync.
type ConfiguredStream struct {
	Stream              Stream     `json:"stream"`
	SyncMode            SyncMode   `json:"sync_mode"`
	DestinationSyncMode string     `json:"destination_sync_mode,omitzero"`
	CursorField         []string   `json:"cursor_field,omitzero"`
	PrimaryKey          [][]string `json:"primary_key,omitzero"`

	Unknown jsontext.Value `json:",unknown"`
}

// Catalog is a configured catalog. Members this package does not model are
// kept and written back unchanged.
type Catalog struct {
	Streams []ConfiguredStream `json:"streams"`

	Unknown jsontext.Value `json:",unknown"`
}

// Decode parses a configured catalog.
func Decode(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode configured catalog: %w", err)
	}
	for i, s := range c.Streams {
		if s.Stream.Name == "" {
			return nil, fmt.Errorf("decode configured catalog: streams[%d]: name is required", i)
		}
	}
	return &c, nil
}

// Marshal renders the catalog in its wire form.
func (c *Catalog) Marshal() ([]byte, error) {
	data, err := json.Marshal(c, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("encode configured catalog: %w", err)
	}
	return data, nil
}

// Stream returns the configured stream named name.
func (c *Catalog) Stream(name string) (*ConfiguredStream, bool) {
	for i := range c.Streams {
		if c.Streams[i].Stream.Name == name {
			return &c.Streams[i], true
		}
	}
	return nil, false
}

// Names returns the stream names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Streams))
	for _, s := range c.Streams {
		names = append(names, s.Stream.Name)
	}
	return names
}

// IncrementalOnly returns a copy holding only the incrementally synced streams.
func (c *Catalog) IncrementalOnly() *Catalog {
	out := &Catalog{Unknown: c.Unknown}
	for _, s := range c.Streams {
		if s.SyncMode == SyncModeIncremental {
			out.Streams = append(out.Streams, s.clone())
		}
	}
	return out
}

// WithDefaultCursors returns a copy in which every stream lacking a
// configured cursor field takes the discovered default. A stream with
// neither is a *ConfigError.
func (c *Catalog) WithDefaultCursors() (*Catalog, error) {
	out := &Catalog{Unknown: c.Unknown, Streams: make([]ConfiguredStream, 0, len(c.Streams))}
	for _, s := range c.Streams {
		s = s.clone()
		if len(s.CursorField) == 0 {
			if len(s.Stream.DefaultCursorField) == 0 {
				return nil, &ConfigError{
					Stream: s.Stream.Name,
					Reason: "incremental streams must declare cursor_field in the configured catalog or default_cursor_field in the discovered catalog",
				}
			}
			s.CursorField = slices.Clone(s.Stream.DefaultCursorField)
		}
		out.Streams = append(out.Streams, s)
	}
	return out, nil
}

// ForIncremental narrows the catalog to incremental streams and fills in
// their default cursor fields.
func (c *Catalog) ForIncremental() (*Catalog, error) {
	return c.IncrementalOnly().WithDefaultCursors()
}

func (s ConfiguredStream) clone() ConfiguredStream {
	s.CursorField = slices.Clone(s.CursorField)
	s.Stream.DefaultCursorField = slices.Clone(s.Stream.DefaultCursorField)
	s.Stream.SupportedSyncModes = slices.Clone(s.Stream.SupportedSyncModes)
	if s.PrimaryKey != nil {
		pk := make([][]string, len(s.PrimaryKey))
		for i, k := range s.PrimaryKey {
			pk[i] = slices.Clone(k)
		}
		s.PrimaryKey = pk
	}
	return s
}
