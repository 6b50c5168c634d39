package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// This is the only serialization used for fingerprints.
//
// Accepts Value types as well as plain Go values (string, bool, int,
// int64, float64, []any, map[string]any, nil) so report snapshots can be
// serialized without converting first.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		return writeCanonicalString(buf, string(val))
	case string:
		return writeCanonicalString(buf, val)
	case Number:
		n, err := canonicalNumber(string(val))
		if err != nil {
			return err
		}
		buf.WriteString(n)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		n, err := canonicalNumber(strconv.FormatFloat(val, 'g', -1, 64))
		if err != nil {
			return err
		}
		buf.WriteString(n)
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case Array:
		return writeCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case []any:
		return writeCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case []string:
		return writeCanonicalArray(buf, len(val), func(i int) any { return val[i] })
	case Object:
		return writeCanonicalObject(buf, val.SortedKeys(), func(k string) any { return val[k] })
	case map[string]any:
		return writeCanonicalObject(buf, sortedKeys(val), func(k string) any { return val[k] })
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalArray(buf *bytes.Buffer, n int, at func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, at(i)); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, keys []string, at func(string) any) error {
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, at(k)); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func sortedKeys(m map[string]any) []string {
	obj := make(Object, len(m))
	for k := range m {
		obj[k] = Null{}
	}
	return obj.SortedKeys()
}

// writeCanonicalString writes a JSON string exactly as given; RFC 8785
// applies no Unicode normalization. No HTML escaping, U+2028/U+2029 are written literally, only
// control characters, backslash, and quote are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes that
// encoding/json emits for JavaScript safety back into literal characters.
// An escaped backslash followed by "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// Copy the escape pair verbatim so "\\" never starts a new escape.
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// canonicalNumber renders a number literal in its shortest ES6 form.
// Integer literals are kept verbatim (minus a negative zero) so values
// beyond float64 precision are not rounded.
func canonicalNumber(lit string) (string, error) {
	if isIntegerLiteral(lit) {
		if lit == "-0" {
			return "0", nil
		}
		return lit, nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return "", fmt.Errorf("invalid number %q: %w", lit, err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("number %q is not representable in JSON", lit)
	}
	if f == 0 {
		return "0", nil
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// ES6 writes 1e-7 and 1e+21, Go writes 1e-07 and 1e+21.
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits, nil
}

func isIntegerLiteral(lit string) bool {
	if lit == "" {
		return false
	}
	start := 0
	if lit[0] == '-' {
		start = 1
	}
	if start == len(lit) {
		return false
	}
	for _, c := range lit[start:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
