package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/message"
)

func TestRandomLog_Reproducible(t *testing.T) {
	a, err := RandomLog(7, 200)
	require.NoError(t, err)
	b, err := RandomLog(7, 200)
	require.NoError(t, err)

	require.Len(t, a, 200)
	require.Len(t, b, 200)
	for i := range a {
		assert.Equal(t, string(a[i].Raw()), string(b[i].Raw()), "message %d", i)
	}
}

func TestRandomLog_MixesTypes(t *testing.T) {
	log, err := RandomLog(1, 500)
	require.NoError(t, err)

	counts := message.Counts(log)
	assert.Positive(t, counts[message.TypeRecord])
	assert.Positive(t, counts[message.TypeState])
	assert.Positive(t, counts[message.TypeLog])
}
