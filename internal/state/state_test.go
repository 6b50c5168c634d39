package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/message"
)

func streamState(t *testing.T, name string, blob any) *message.State {
	t.Helper()
	st, err := message.NewStreamState(name, blob)
	require.NoError(t, err)
	return st
}

func legacyState(t *testing.T, data any) *message.State {
	t.Helper()
	st, err := message.NewLegacyState(data)
	require.NoError(t, err)
	return st
}

func TestNormalizePerStreamFoldsLatestPerStream(t *testing.T) {
	states := []*message.State{
		streamState(t, "users", map[string]any{"updated_at": 1}),
		streamState(t, "orders", map[string]any{"id": 10}),
		streamState(t, "users", map[string]any{"updated_at": 5}),
	}

	c := Normalize(states)

	assert.Equal(t, ShapePerStream, c.Shape)
	assert.Equal(t, []string{"users", "orders"}, c.Streams())

	users, ok := c.Lookup("users")
	require.True(t, ok)
	assert.JSONEq(t, `{"updated_at":5}`, string(users))

	orders, ok := c.Lookup("orders")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":10}`, string(orders))

	doc, err := c.Document()
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":{"updated_at":5},"orders":{"id":10}}`, string(doc))
}

func TestNormalizePerStreamAbsentBlobIsEmptyObject(t *testing.T) {
	c := Normalize([]*message.State{streamState(t, "users", nil)})

	blob, ok := c.Lookup("users")
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(blob))
}

func TestNormalizePerStreamAbsentBlobResetsEarlierEntry(t *testing.T) {
	c := Normalize([]*message.State{
		streamState(t, "users", map[string]any{"updated_at": 5}),
		streamState(t, "users", nil),
	})

	blob, ok := c.Lookup("users")
	require.True(t, ok)
	assert.JSONEq(t, `{}`, string(blob))
}

func TestNormalizeLegacyTakesFinalBlob(t *testing.T) {
	states := []*message.State{
		legacyState(t, map[string]any{"users": map[string]any{"updated_at": 1}, "orders": map[string]any{"id": 3}}),
		legacyState(t, map[string]any{"users": map[string]any{"updated_at": 9}}),
	}

	c := Normalize(states)

	assert.Equal(t, ShapeLegacy, c.Shape)
	assert.Equal(t, []string{"users"}, c.Streams())
	_, ok := c.Lookup("orders")
	assert.False(t, ok, "earlier legacy blobs are irrelevant")

	doc, err := c.Document()
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":{"updated_at":9}}`, string(doc))
}

func TestNormalizeLastMessageForcesPerStreamShape(t *testing.T) {
	states := []*message.State{
		legacyState(t, map[string]any{"updated_at": 100}),
		streamState(t, "users", map[string]any{"updated_at": 7}),
	}

	c := Normalize(states)

	assert.Equal(t, ShapePerStream, c.Shape)
	assert.Equal(t, []string{"users"}, c.Streams())
	_, ok := c.Lookup("updated_at")
	assert.False(t, ok, "legacy members must not leak into per-stream state")
}

func TestNormalizeLastMessageForcesLegacyShape(t *testing.T) {
	states := []*message.State{
		streamState(t, "users", map[string]any{"updated_at": 7}),
		legacyState(t, map[string]any{"updated_at": 100}),
	}

	c := Normalize(states)

	assert.Equal(t, ShapeLegacy, c.Shape)
	doc, err := c.Document()
	require.NoError(t, err)
	assert.JSONEq(t, `{"updated_at":100}`, string(doc))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	states := []*message.State{
		streamState(t, "users", map[string]any{"updated_at": 1}),
		streamState(t, "orders", nil),
		streamState(t, "users", map[string]any{"updated_at": 2}),
	}

	first := Normalize(states)
	second := Normalize(states)

	assert.Equal(t, first, second)

	fp1, err := first.Fingerprint()
	require.NoError(t, err)
	fp2, err := second.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestNormalizePanicsOnEmptyInput(t *testing.T) {
	assert.Panics(t, func() { Normalize(nil) })
}

func TestAccumulatorSnapshotsAreIndependent(t *testing.T) {
	acc := NewAccumulator(ShapePerStream)

	acc.Apply(streamState(t, "users", map[string]any{"updated_at": 1}))
	before := acc.Snapshot()

	acc.Apply(streamState(t, "users", map[string]any{"updated_at": 2}))
	acc.Apply(streamState(t, "orders", map[string]any{"id": 1}))
	after := acc.Snapshot()

	blob, _ := before.Lookup("users")
	assert.JSONEq(t, `{"updated_at":1}`, string(blob))
	assert.Equal(t, 1, before.Len())
	assert.Equal(t, 2, after.Len())
}

func TestAccumulatorPerStreamSkipsUnattributed(t *testing.T) {
	acc := NewAccumulator(ShapePerStream)
	acc.Apply(legacyState(t, map[string]any{"users": map[string]any{"updated_at": 1}}))

	assert.Equal(t, 0, acc.Snapshot().Len())
}

func TestInputPerStream(t *testing.T) {
	c := Normalize([]*message.State{
		streamState(t, "users", map[string]any{"updated_at": 5}),
		streamState(t, "orders", map[string]any{"id": 10}),
	})

	input, err := c.Input()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"STREAM","stream":{"stream_descriptor":{"name":"users"},"stream_state":{"updated_at":5}}},
		{"type":"STREAM","stream":{"stream_descriptor":{"name":"orders"},"stream_state":{"id":10}}}
	]`, string(input))
}

func TestInputLegacy(t *testing.T) {
	c := Normalize([]*message.State{legacyState(t, map[string]any{"users": map[string]any{"updated_at": 5}})})

	input, err := c.Input()
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":{"updated_at":5}}`, string(input))
}

func TestLegacyNonObjectBlob(t *testing.T) {
	c := Normalize([]*message.State{legacyState(t, []any{1, 2})})

	assert.Equal(t, 0, c.Len())
	doc, err := c.Document()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(doc))
}

func TestFingerprintDistinguishesShape(t *testing.T) {
	perStream := Normalize([]*message.State{streamState(t, "users", map[string]any{"updated_at": 5})})
	legacy := Normalize([]*message.State{legacyState(t, map[string]any{"users": map[string]any{"updated_at": 5}})})

	fp1, err := perStream.Fingerprint()
	require.NoError(t, err)
	fp2, err := legacy.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "legacy", ShapeLegacy.String())
	assert.Equal(t, "per-stream", ShapePerStream.String())
	assert.Equal(t, "Shape(7)", Shape(7).String())
}
