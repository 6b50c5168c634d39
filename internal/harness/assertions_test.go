package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/cursor"
	"github.com/as42sl/airbyte/internal/message"
)

func pair(record, st cursor.Value) cursorPair {
	return cursorPair{Stream: "users", Record: record, State: st}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Message: "boom", Expected: "x", Actual: "y"}
	assert.Equal(t, "boom\n  Expected: x\n  Actual: y", err.Error())

	assert.Equal(t, "bare", (&AssertionError{Message: "bare"}).Error())
}

func TestAssertFirstReadBounded(t *testing.T) {
	ok := []cursorPair{pair(cursor.MustNumber("1"), cursor.MustNumber("2")), pair(cursor.MustNumber("2"), cursor.MustNumber("2"))}
	assert.NoError(t, assertFirstReadBounded(ok))

	err := assertFirstReadBounded([]cursorPair{pair(cursor.MustNumber("3"), cursor.MustNumber("2"))})
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertFirstReadBounded, assertErr.Type)
	assert.Equal(t, "record cursor 3", assertErr.Actual)
}

func TestAssertResumedReadBounded(t *testing.T) {
	day := func(d int) cursor.Value {
		return cursor.String(fmt.Sprintf("2024-01-%02d", d))
	}

	tests := []struct {
		name      string
		record    cursor.Value
		state     cursor.Value
		tolerance int
		wantErr   bool
	}{
		{"equal", cursor.MustNumber("5"), cursor.MustNumber("5"), 0, false},
		{"after", cursor.MustNumber("6"), cursor.MustNumber("5"), 0, false},
		{"before", cursor.MustNumber("4"), cursor.MustNumber("5"), 0, true},
		{"before within tolerance", day(9), day(10), 1, false},
		{"before beyond tolerance", day(8), day(10), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertResumedReadBounded([]cursorPair{pair(tt.record, tt.state)}, tt.tolerance)
			if tt.wantErr {
				var assertErr *AssertionError
				require.ErrorAs(t, err, &assertErr)
				assert.Equal(t, AssertResumedReadBounded, assertErr.Type)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssertResumedReadBounded_ComparisonErrorsPropagate(t *testing.T) {
	err := assertResumedReadBounded([]cursorPair{pair(cursor.String("soon"), cursor.String("2024-01-01"))}, 1)
	require.Error(t, err)

	var parseErr *cursor.ParseError
	assert.True(t, errors.As(err, &parseErr))
	var assertErr *AssertionError
	assert.False(t, errors.As(err, &assertErr))

	err = assertFirstReadBounded([]cursorPair{pair(cursor.String("1"), cursor.MustNumber("1"))})
	var mismatch *cursor.MismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestAssertFutureStateRead(t *testing.T) {
	rec, err := message.NewRecord("orders", map[string]any{"id": 1}, 0)
	require.NoError(t, err)
	st, err := message.NewStreamState("orders", map[string]any{"updated_at": 1})
	require.NoError(t, err)

	assert.NoError(t, assertFutureStateRead([]message.Message{st}))

	err = assertFutureStateRead([]message.Message{rec, st})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abnormally large values orders")

	err = assertFutureStateRead(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The sync should produce at least one STATE message")
}

func TestReportStatus(t *testing.T) {
	tests := []struct {
		statuses []Status
		want     Status
	}{
		{[]Status{StatusSkip, StatusSkip}, StatusSkip},
		{[]Status{StatusSkip, StatusPass}, StatusPass},
		{[]Status{StatusPass, StatusFail, StatusPass}, StatusFail},
		{[]Status{StatusFail, StatusError}, StatusError},
		{nil, StatusSkip},
	}
	for _, tt := range tests {
		r := &Report{}
		for _, s := range tt.statuses {
			r.Results = append(r.Results, &Result{Status: s})
		}
		assert.Equal(t, tt.want, r.Status(), "%v", tt.statuses)
	}
}
