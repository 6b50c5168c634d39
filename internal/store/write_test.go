package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/canon"
)

func TestBeginSuite_AssignsSeq(t *testing.T) {
	s := createTestStore(t)

	first := createTestSuite(t, s, "suite-1")
	second := createTestSuite(t, s, "suite-2")

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, StatusRunning, first.Status)
}

func TestBeginSuite_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	createTestSuite(t, s, "suite-1")

	_, err := s.BeginSuite(context.Background(), Suite{ID: "suite-1", StartedAt: testEpoch})
	require.Error(t, err)
}

func TestFinishSuite(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	suite := createTestSuite(t, s, "suite-1")

	suite.Status = StatusFail
	suite.FinishedAt = testEpoch.Add(time.Minute)
	require.NoError(t, s.FinishSuite(ctx, suite))

	got, err := s.ReadSuite(ctx, "suite-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, got.Status)
	assert.Equal(t, testEpoch.Add(time.Minute), got.FinishedAt)
}

func TestFinishSuite_Unknown(t *testing.T) {
	s := createTestStore(t)

	err := s.FinishSuite(context.Background(), Suite{ID: "ghost", Status: StatusPass})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown suite")
}

func TestWriteRun_StoresMessagesInOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	createTestSuite(t, s, "suite-1")
	log := createTestLog(t)

	run, err := s.WriteRun(ctx, Run{
		ID:         "run-1",
		SuiteID:    "suite-1",
		Scenario:   "two_sequential_reads",
		Kind:       RunReadWithState,
		InputState: []byte(`{"users":{"updated_at":5}}`),
		StartedAt:  testEpoch,
		Duration:   1500 * time.Millisecond,
	}, log)
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, 3, run.MessageCount)

	rows, err := s.ReadMessageRows(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"LOG", "RECORD", "STATE"}, []string{rows[0].Type, rows[1].Type, rows[2].Type})
	assert.Equal(t, "", rows[0].Stream)
	assert.Equal(t, "users", rows[1].Stream)
	assert.Equal(t, "users", rows[2].Stream)
	for i, row := range rows {
		assert.Equal(t, int64(i+1), row.Seq)
		assert.Equal(t, string(log[i].Raw()), string(row.Body))

		fp, err := canon.FingerprintJSONNFC(canon.DomainMessage, log[i].Raw())
		require.NoError(t, err)
		assert.Equal(t, fp, row.Fingerprint)
	}
}

func TestWriteRun_WithoutSuite(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.WriteRun(ctx, Run{ID: "run-1", Scenario: "adhoc", Kind: RunRead, StartedAt: testEpoch}, nil)
	require.NoError(t, err)

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "", run.SuiteID)
	assert.Nil(t, run.InputState)
	assert.Equal(t, 0, run.MessageCount)
}

func TestWriteRun_UnknownSuiteViolatesForeignKey(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteRun(context.Background(), Run{ID: "run-1", SuiteID: "ghost", Scenario: "x", Kind: RunRead, StartedAt: testEpoch}, nil)
	require.Error(t, err)
}

func TestWriteRun_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.WriteRun(ctx, Run{ID: "run-1", Scenario: "x", Kind: "bogus", StartedAt: testEpoch}, createTestLog(t))
	require.Error(t, err, "kind CHECK constraint")

	_, err = s.ReadRun(ctx, "run-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	rows, err := s.ReadMessageRows(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWriteVerdict_Upserts(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	createTestSuite(t, s, "suite-1")

	_, err := s.WriteVerdict(ctx, Verdict{SuiteID: "suite-1", Scenario: "two_sequential_reads", Status: StatusFail, Detail: "boom"})
	require.NoError(t, err)
	_, err = s.WriteVerdict(ctx, Verdict{SuiteID: "suite-1", Scenario: "read_sequential_slices", Status: StatusSkip})
	require.NoError(t, err)
	_, err = s.WriteVerdict(ctx, Verdict{SuiteID: "suite-1", Scenario: "two_sequential_reads", Status: StatusPass})
	require.NoError(t, err)

	verdicts, err := s.ReadVerdicts(ctx, "suite-1")
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.Equal(t, "read_sequential_slices", verdicts[0].Scenario)
	assert.Equal(t, "two_sequential_reads", verdicts[1].Scenario)
	assert.Equal(t, StatusPass, verdicts[1].Status)
	assert.Equal(t, "", verdicts[1].Detail)
}

func TestWriteVerdict_RejectsUnknownStatus(t *testing.T) {
	s := createTestStore(t)
	createTestSuite(t, s, "suite-1")

	_, err := s.WriteVerdict(context.Background(), Verdict{SuiteID: "suite-1", Scenario: "x", Status: "maybe"})
	require.Error(t, err)
}
