package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/as42sl/airbyte/internal/schema"
)

// ConfigError is a fatal problem with the catalog or test configuration.
// It aborts setup and is never retried.
type ConfigError struct {
	Stream string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("stream %q: %s", e.Stream, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CursorLocation tells where a stream keeps its cursor.
type CursorLocation struct {
	Stream string

	// CursorField is the record path of the cursor.
	CursorField []string

	// StatePath is the path of the cursor inside the stream's state.
	StatePath []string

	// Field is CursorField resolved against the stream's JSON schema.
	Field *schema.Field
}

// String renders the location as "stream: record.path -> state.path".
func (l *CursorLocation) String() string {
	return fmt.Sprintf("%s: %s -> %s", l.Stream, strings.Join(l.CursorField, "."), strings.Join(l.StatePath, "."))
}

// ResolveCursors resolves the cursor location of every stream. The state
// path defaults to the last element of the cursor field; statePaths
// overrides it per stream. Streams must already carry a cursor field, see
// WithDefaultCursors.
func ResolveCursors(c *Catalog, statePaths map[string][]string) (map[string]*CursorLocation, error) {
	for name := range statePaths {
		if _, ok := c.Stream(name); !ok {
			return nil, &ConfigError{Stream: name, Reason: "cursor_paths names a stream that is not in the incremental catalog"}
		}
	}

	out := make(map[string]*CursorLocation, len(c.Streams))
	for _, s := range c.Streams {
		name := s.Stream.Name
		if len(s.CursorField) == 0 {
			return nil, &ConfigError{Stream: name, Reason: "no cursor field"}
		}

		jsonSchema := []byte(s.Stream.JSONSchema)
		if len(jsonSchema) == 0 {
			jsonSchema = []byte(`{}`)
		}
		helper, err := schema.New(jsonSchema)
		if err != nil {
			return nil, &ConfigError{Stream: name, Reason: "invalid json_schema", Err: err}
		}
		field, err := helper.Field(s.CursorField)
		if err != nil {
			return nil, &ConfigError{Stream: name, Reason: "cursor field is not declared in json_schema", Err: err}
		}

		statePath := []string{s.CursorField[len(s.CursorField)-1]}
		if override, ok := statePaths[name]; ok {
			if len(override) == 0 {
				return nil, &ConfigError{Stream: name, Reason: "cursor_paths entry is empty"}
			}
			statePath = slices.Clone(override)
		}

		out[name] = &CursorLocation{
			Stream:      name,
			CursorField: slices.Clone(s.CursorField),
			StatePath:   statePath,
			Field:       field,
		}
	}
	return out, nil
}
