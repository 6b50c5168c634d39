package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int literal", Number("42"), "42"},
		{"negative zero", Number("-0"), "0"},
		{"big int kept verbatim", Number("12345678901234567890"), "12345678901234567890"},
		{"float trailing zero", Number("1.50"), "1.5"},
		{"float integral", Number("2.0"), "2"},
		{"exponent", Number("1E3"), "1000"},
		{"tiny exponent", Number("1e-7"), "1e-7"},
		{"null", Null{}, "null"},
		{"bool", Bool(true), "true"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"go map", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"go nil", nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{"b": Number("1"), "a": Number("2")},
		"a": Number("3"),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before U+E000.
	obj := Object{
		"\uE000":     Number("1"),
		"\U00010000": Number("2"),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// A literal backslash followed by "u2028" text stays escaped.
	result, err = MarshalCanonical(String(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}

func TestMarshalCanonicalKeepsComposition(t *testing.T) {
	// "e" + combining acute accent is written as given.
	result, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"e\u0301\"", string(result))
}

func TestNFC(t *testing.T) {
	v := Object{
		"e\u0301": Array{String("caf\u0065\u0301"), Number("1")},
	}
	assert.Equal(t, Object{
		"\u00e9": Array{String("caf\u00e9"), Number("1")},
	}, NFC(v))
}

func TestFingerprintJSON_Normalization(t *testing.T) {
	composed := []byte("{\"name\":\"caf\u00e9\"}")
	decomposed := []byte("{\"name\":\"cafe\u0301\"}")

	a, err := FingerprintJSON(DomainBatch, composed)
	require.NoError(t, err)
	b, err := FingerprintJSON(DomainBatch, decomposed)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	a, err = FingerprintJSONNFC(DomainMessage, composed)
	require.NoError(t, err)
	b, err = FingerprintJSONNFC(DomainMessage, decomposed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestFingerprintKeyOrderInsensitive(t *testing.T) {
	a, err := FingerprintJSON(DomainMessage, []byte(`{"a":1,"b":{"c":2,"d":3}}`))
	require.NoError(t, err)
	b, err := FingerprintJSON(DomainMessage, []byte(`{ "b": {"d":3, "c":2}, "a": 1 }`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintDomainSeparation(t *testing.T) {
	a, err := Fingerprint(DomainMessage, Object{"a": Number("1")})
	require.NoError(t, err)
	b, err := Fingerprint(DomainBatch, Object{"a": Number("1")})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestFingerprintDistinguishesValues(t *testing.T) {
	a, err := FingerprintJSON(DomainMessage, []byte(`{"cursor":5}`))
	require.NoError(t, err)
	b, err := FingerprintJSON(DomainMessage, []byte(`{"cursor":"5"}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
