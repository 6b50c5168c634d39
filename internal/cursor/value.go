package cursor

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/go-json-experiment/json/jsontext"
)

// Kind classifies a cursor value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a comparable cursor value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	lit  string
	num  *big.Rat
	t    time.Time
}

// Null returns the null cursor value.
func Null() Value { return Value{} }

// Bool returns a boolean cursor value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string cursor value.
func String(s string) Value { return Value{kind: KindString, lit: s} }

// Time returns a date cursor value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Number parses a JSON number literal. Precision is exact.
func Number(lit string) (Value, error) {
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		return Value{}, fmt.Errorf("invalid number literal %q", lit)
	}
	return Value{kind: KindNumber, lit: lit, num: r}, nil
}

// MustNumber is like Number but panics on a malformed literal.
func MustNumber(lit string) Value {
	v, err := Number(lit)
	if err != nil {
		panic(err)
	}
	return v
}

// FromJSON converts a scalar JSON value. Objects and arrays are not cursors.
func FromJSON(raw jsontext.Value) (Value, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.ReadToken()
	if err != nil {
		return Value{}, fmt.Errorf("decode cursor value: %w", err)
	}
	switch tok.Kind() {
	case 'n':
		return Null(), nil
	case 't', 'f':
		return Bool(tok.Bool()), nil
	case '"':
		return String(tok.String()), nil
	case '0':
		return Number(tok.String())
	default:
		return Value{}, fmt.Errorf("cursor value must be a scalar, got %s", raw)
	}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Time returns the value as a time if it is a date.
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindTime }

// String renders the value for messages.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprint(v.b)
	case KindNumber:
		return v.lit
	case KindString:
		return fmt.Sprintf("%q", v.lit)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "null"
	}
}
