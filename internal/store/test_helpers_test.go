package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/message"
)

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSuite inserts a running suite.
func createTestSuite(t *testing.T, s *Store, id string) Suite {
	t.Helper()
	suite, err := s.BeginSuite(context.Background(), Suite{
		ID:         id,
		ConfigPath: "acceptance-test-config.yml",
		StartedAt:  testEpoch,
	})
	require.NoError(t, err)
	return suite
}

// createTestLog builds a small log: LOG, RECORD, STATE.
func createTestLog(t *testing.T) []message.Message {
	t.Helper()
	logMsg, err := message.NewOther(message.TypeLog, "log", map[string]any{"level": "INFO", "message": "starting"})
	require.NoError(t, err)
	rec, err := message.NewRecord("users", map[string]any{"id": 1, "updated_at": 5}, 0)
	require.NoError(t, err)
	st, err := message.NewStreamState("users", map[string]any{"updated_at": 5})
	require.NoError(t, err)
	return []message.Message{logMsg, rec, st}
}
