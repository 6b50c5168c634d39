package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/cursor"
	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/schema"
	"github.com/as42sl/airbyte/internal/state"
)

// cursorPair is a record cursor and the state cursor it is checked against.
type cursorPair struct {
	Stream string
	Record cursor.Value
	State  cursor.Value
}

// stateLookup resolves and caches the state cursor of each stream.
type stateLookup struct {
	state   state.Canonical
	doc     jsontext.Value
	cursors map[string]stateCursor
}

// stateCursor is the state cursor found for a stream, if any.
type stateCursor struct {
	value cursor.Value
	found bool
}

func newStateLookup(st state.Canonical) (*stateLookup, error) {
	doc, err := st.Document()
	if err != nil {
		return nil, err
	}
	return &stateLookup{state: st, doc: doc, cursors: make(map[string]stateCursor)}, nil
}

// lookup finds the state cursor of loc's stream. The stream's own entry is
// tried first, then the whole document as an absolute path. A stream whose
// entry is null has no cursor.
func (l *stateLookup) lookup(loc *catalog.CursorLocation) (stateCursor, error) {
	if res, ok := l.cursors[loc.Stream]; ok {
		return res, nil
	}

	var res stateCursor
	blob, ok := l.state.Lookup(loc.Stream)
	if ok && blob.Kind() == 'n' {
		l.cursors[loc.Stream] = res
		return res, nil
	}
	candidates := []jsontext.Value{l.doc}
	if ok {
		candidates = []jsontext.Value{blob, l.doc}
	}
	for _, doc := range candidates {
		v, err := loc.Field.Parse(doc, loc.StatePath)
		if errors.Is(err, schema.ErrPathNotFound) {
			continue
		}
		if err != nil {
			return stateCursor{}, fmt.Errorf("stream %s: state cursor at %s: %w", loc.Stream, strings.Join(loc.StatePath, "."), err)
		}
		res.value, res.found = v, true
		break
	}
	l.cursors[loc.Stream] = res
	return res, nil
}

// recordsWithState pairs each record's cursor with its stream's state
// cursor. Records of streams outside locs, or without a resolvable state
// cursor, are left out. A record missing its own cursor value is an
// assertion failure.
func recordsWithState(records []*message.Record, st state.Canonical, locs map[string]*catalog.CursorLocation) ([]cursorPair, error) {
	lookup, err := newStateLookup(st)
	if err != nil {
		return nil, err
	}

	var pairs []cursorPair
	for _, rec := range records {
		loc, ok := locs[rec.Stream]
		if !ok {
			continue
		}
		recordCursor, err := loc.Field.Parse(rec.Data, nil)
		if errors.Is(err, schema.ErrPathNotFound) {
			return nil, &AssertionError{
				Type:     AssertCursorPresent,
				Message:  "Record should carry its cursor value. Stream: " + rec.Stream,
				Stream:   rec.Stream,
				Expected: "a value at " + strings.Join(loc.CursorField, "."),
				Actual:   err.Error(),
			}
		}
		if err != nil {
			return nil, fmt.Errorf("stream %s: record cursor: %w", rec.Stream, err)
		}

		sc, err := lookup.lookup(loc)
		if err != nil {
			return nil, err
		}
		if !sc.found {
			continue
		}
		pairs = append(pairs, cursorPair{Stream: rec.Stream, Record: recordCursor, State: sc.value})
	}
	return pairs, nil
}
