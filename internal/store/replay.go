package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/as42sl/airbyte/internal/message"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayRun decodes the stored log of a run back into messages, in the
// order the connector emitted them.
func (s *Store) ReplayRun(ctx context.Context, runID string) (Run, []message.Message, error) {
	run, err := s.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("replay run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	rows, err := s.ReadMessageRows(ctx, runID)
	if err != nil {
		return Run{}, nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	log := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		m, err := message.Decode(row.Body)
		if err != nil {
			return Run{}, nil, fmt.Errorf("replay run %s: message %d: %w", runID, row.Seq, err)
		}
		log = append(log, m)
	}
	if len(log) != run.MessageCount {
		return Run{}, nil, fmt.Errorf("replay run %s: stored %d messages, run recorded %d", runID, len(log), run.MessageCount)
	}
	return run, log, nil
}

// LastSuite returns the most recent suite.
// Returns sql.ErrNoRows if the store is empty.
func (s *Store) LastSuite(ctx context.Context) (Suite, error) {
	suites, err := s.ListSuites(ctx, 1)
	if err != nil {
		return Suite{}, err
	}
	if len(suites) == 0 {
		return Suite{}, sql.ErrNoRows
	}
	return suites[0], nil
}
