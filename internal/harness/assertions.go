package harness

import (
	"fmt"
	"strings"

	"github.com/as42sl/airbyte/internal/cursor"
	"github.com/as42sl/airbyte/internal/message"
)

// Assertion types.
const (
	AssertHasStates          = "has_states"
	AssertHasRecords         = "has_records"
	AssertCursorPresent      = "cursor_present"
	AssertFirstReadBounded   = "first_read_bounded"
	AssertResumedReadBounded = "resumed_read_bounded"
	AssertNoRecords          = "no_records"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Message  string // One-line summary
	Stream   string // Empty when the failure is not about one stream
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Expected != "" {
		fmt.Fprintf(&buf, "\n  Expected: %s", e.Expected)
	}
	if e.Actual != "" {
		fmt.Fprintf(&buf, "\n  Actual: %s", e.Actual)
	}
	return buf.String()
}

// assertHasStatesAndRecords checks that a full read produced something to
// verify.
func assertHasStatesAndRecords(log []message.Message) error {
	counts := message.Counts(log)
	if counts[message.TypeState] == 0 {
		return &AssertionError{
			Type:     AssertHasStates,
			Message:  "Should produce at least one state",
			Expected: "at least one STATE message",
			Actual:   "no checkpoints produced",
		}
	}
	if counts[message.TypeRecord] == 0 {
		return &AssertionError{
			Type:     AssertHasRecords,
			Message:  "Should produce at least one record",
			Expected: "at least one RECORD message",
			Actual:   "0 records",
		}
	}
	return nil
}

// assertFirstReadBounded checks that every record of a full read is at or
// before the state that checkpoints it.
func assertFirstReadBounded(pairs []cursorPair) error {
	for _, p := range pairs {
		ok, err := cursor.AtOrBefore(p.Record, p.State, 0)
		if err != nil {
			return fmt.Errorf("stream %s: compare cursors: %w", p.Stream, err)
		}
		if !ok {
			return &AssertionError{
				Type:     AssertFirstReadBounded,
				Message:  "First incremental sync should produce records younger or equal to cursor value from the state. Stream: " + p.Stream,
				Stream:   p.Stream,
				Expected: fmt.Sprintf("record cursor <= %s", p.State),
				Actual:   fmt.Sprintf("record cursor %s", p.Record),
			}
		}
	}
	return nil
}

// assertResumedReadBounded checks that every record of a resumed read is at
// or after the state it resumed from, less toleranceDays.
func assertResumedReadBounded(pairs []cursorPair, toleranceDays int) error {
	for _, p := range pairs {
		ok, err := cursor.AtOrBefore(p.State, p.Record, toleranceDays)
		if err != nil {
			return fmt.Errorf("stream %s: compare cursors: %w", p.Stream, err)
		}
		if !ok {
			expected := fmt.Sprintf("record cursor >= %s", p.State)
			if toleranceDays > 0 {
				expected += fmt.Sprintf(" - %d days", toleranceDays)
			}
			return &AssertionError{
				Type:     AssertResumedReadBounded,
				Message:  "Second incremental sync should produce records older or equal to cursor value from the state. Stream: " + p.Stream,
				Stream:   p.Stream,
				Expected: expected,
				Actual:   fmt.Sprintf("record cursor %s", p.Record),
			}
		}
	}
	return nil
}

// assertFutureStateRead checks the read resumed from a future state.
func assertFutureStateRead(log []message.Message) error {
	if records := message.Records(log); len(records) > 0 {
		return &AssertionError{
			Type:     AssertNoRecords,
			Message:  "The sync should produce no records when run with the state with abnormally large values " + records[0].Stream,
			Stream:   records[0].Stream,
			Expected: "0 records",
			Actual:   fmt.Sprintf("%d records", len(records)),
		}
	}
	if len(message.States(log)) == 0 {
		return &AssertionError{
			Type:     AssertHasStates,
			Message:  "The sync should produce at least one STATE message",
			Expected: "at least one STATE message",
			Actual:   "0 states",
		}
	}
	return nil
}
