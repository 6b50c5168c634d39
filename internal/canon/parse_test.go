package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse([]byte(`{"s":"x","n":1.25,"i":9007199254740993,"b":false,"z":null,"a":[1,"two"]}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("x"), obj["s"])
	assert.Equal(t, Number("1.25"), obj["n"])
	assert.Equal(t, Number("9007199254740993"), obj["i"])
	assert.Equal(t, Bool(false), obj["b"])
	assert.Equal(t, Null{}, obj["z"])
	assert.Equal(t, Array{Number("1"), String("two")}, obj["a"])
}

func TestParseScalars(t *testing.T) {
	v, err := Parse([]byte(`"hello"`))
	require.NoError(t, err)
	assert.Equal(t, String("hello"), v)

	v, err = Parse([]byte(`-3`))
	require.NoError(t, err)
	assert.Equal(t, Number("-3"), v)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"truncated object", `{"a":`},
		{"trailing data", `{} {}`},
		{"duplicate key", `{"a":1,"a":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestCanonicalJSONRoundTrip(t *testing.T) {
	out, err := CanonicalJSON([]byte(` { "b" : [ 1 , 2 ], "a" : "x" } `))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":[1,2]}`, string(out))
}
