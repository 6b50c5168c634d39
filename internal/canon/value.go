package canon

import (
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface over decoded JSON values.
// Only Null, String, Number, Bool, Array, and Object implement it.
type Value interface {
	canonValue()
}

// Null is JSON null.
type Null struct{}

func (Null) canonValue() {}

// String is a JSON string.
type String string

func (String) canonValue() {}

// Number keeps the literal text of a JSON number so integers beyond 2^53
// survive a round trip.
type Number string

func (Number) canonValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) canonValue() {}

// Array is a JSON array.
type Array []Value

func (Array) canonValue() {}

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// NFC returns a copy of v with every string and object key in Unicode
// normalization form C. Keys that collide after normalization keep the
// value of the last key in canonical order.
func NFC(v Value) Value {
	switch val := v.(type) {
	case String:
		return String(norm.NFC.String(string(val)))
	case Array:
		out := make(Array, len(val))
		for i, item := range val {
			out[i] = NFC(item)
		}
		return out
	case Object:
		out := make(Object, len(val))
		for _, k := range val.SortedKeys() {
			out[norm.NFC.String(k)] = NFC(val[k])
		}
		return out
	default:
		return v
	}
}
