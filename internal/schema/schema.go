package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/as42sl/airbyte/internal/cursor"
)

// ErrPathNotFound is returned when a path does not resolve in a schema or
// document.
var ErrPathNotFound = errors.New("path not found")

// PathError reports where a path lookup stopped.
type PathError struct {
	Path    []string
	Missing string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q missing at %q", ErrPathNotFound, e.Missing, strings.Join(e.Path, "."))
}

func (e *PathError) Unwrap() error { return ErrPathNotFound }

var dateFormats = []string{"date-time", "datetime", "date"}

// Helper wraps one stream's JSON schema.
//
// A Helper owns a CUE context and is not safe for concurrent use.
type Helper struct {
	ctx  *cue.Context
	root cue.Value
}

// New loads a JSON schema document.
func New(jsonSchema []byte) (*Helper, error) {
	ctx := cuecontext.New()
	root, err := build(ctx, "schema", jsonSchema)
	if err != nil {
		return nil, fmt.Errorf("load json schema: %w", err)
	}
	return &Helper{ctx: ctx, root: root}, nil
}

func build(ctx *cue.Context, name string, data []byte) (cue.Value, error) {
	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	v := ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// Field resolves path through the schema's nested "properties".
func (h *Helper) Field(path []string) (*Field, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty cursor path")
	}
	node := h.root
	for _, segment := range path {
		node = node.LookupPath(cue.MakePath(cue.Str("properties"), cue.Str(segment)))
		if !node.Exists() {
			return nil, &PathError{Path: path, Missing: segment}
		}
	}
	formats, err := detectFormats(node)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", strings.Join(path, "."), err)
	}
	return &Field{ctx: h.ctx, Path: slices.Clone(path), Formats: formats}, nil
}

// detectFormats returns the field's "format", or else its "type" entries.
func detectFormats(node cue.Value) ([]string, error) {
	v := node.LookupPath(cue.ParsePath("format"))
	if !v.Exists() {
		v = node.LookupPath(cue.ParsePath("type"))
	}
	if !v.Exists() {
		return nil, nil
	}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return []string{s}, nil
	case cue.ListKind:
		var out []string
		it, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for it.Next() {
			s, err := it.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// Field is a cursor field resolved against a schema.
type Field struct {
	ctx *cue.Context

	Path    []string
	Formats []string
}

// IsDate reports whether the schema declares the field as a date.
func (f *Field) IsDate() bool {
	return slices.ContainsFunc(f.Formats, func(s string) bool {
		return slices.Contains(dateFormats, s)
	})
}

// Parse extracts the value at path in doc, or at the field's own path when
// path is empty. Values of date-formatted fields are parsed into dates.
func (f *Field) Parse(doc []byte, path []string) (cursor.Value, error) {
	if len(path) == 0 {
		path = f.Path
	}
	root, err := build(f.ctx, "document", doc)
	if err != nil {
		return cursor.Value{}, fmt.Errorf("load document: %w", err)
	}

	v := root
	for _, segment := range path {
		if v.Kind() != cue.StructKind {
			return cursor.Value{}, &PathError{Path: path, Missing: segment}
		}
		v = v.LookupPath(cue.MakePath(cue.Str(segment)))
		if !v.Exists() {
			return cursor.Value{}, &PathError{Path: path, Missing: segment}
		}
	}
	return f.convert(v)
}

func (f *Field) convert(v cue.Value) (cursor.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		if f.IsDate() && !slices.Contains(f.Formats, "null") {
			return cursor.Value{}, fmt.Errorf("null value for date field %s", strings.Join(f.Path, "."))
		}
		return cursor.Null(), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return cursor.Value{}, formatCUEError(err)
		}
		return cursor.Bool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return cursor.Value{}, formatCUEError(err)
		}
		if !f.IsDate() {
			return cursor.String(s), nil
		}
		// MySQL emits zero dates for unset datetime columns.
		if rest, ok := strings.CutPrefix(s, "0000-00-00"); ok {
			s = "0001-01-01" + rest
		}
		t, err := cursor.ParseDate(s)
		if err != nil {
			return cursor.Value{}, &cursor.ParseError{Value: cursor.String(s), Err: err}
		}
		return cursor.Time(t), nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		lit, err := v.MarshalJSON()
		if err != nil {
			return cursor.Value{}, formatCUEError(err)
		}
		return cursor.Number(string(lit))
	default:
		return cursor.Value{}, fmt.Errorf("cursor value at %s is a %s, not a scalar", strings.Join(f.Path, "."), v.Kind())
	}
}

// formatCUEError keeps the first error of a CUE error list.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return errs[0]
}
