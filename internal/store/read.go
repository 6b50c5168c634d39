package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-json-experiment/json/jsontext"
)

// ListSuites returns the most recent suites, newest first. A limit of zero
// or less returns every suite.
func (s *Store) ListSuites(ctx context.Context, limit int) ([]Suite, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_path, status, started_at, COALESCE(finished_at, ''), seq
		FROM suites
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query suites: %w", err)
	}
	defer rows.Close()

	suites := []Suite{}
	for rows.Next() {
		suite, err := scanSuite(rows)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suites: %w", err)
	}
	return suites, nil
}

// ReadSuite retrieves a suite by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSuite(ctx context.Context, id string) (Suite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, config_path, status, started_at, COALESCE(finished_at, ''), seq
		FROM suites
		WHERE id = ?
	`, id)
	return scanSuite(row)
}

// ListRuns returns the runs of a suite in execution order.
// Returns an empty slice (not nil) if the suite has no runs.
func (s *Store) ListRuns(ctx context.Context, suiteID string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(suite_id, ''), scenario, kind, input_state, started_at,
		       duration_ms, error, message_count, seq
		FROM runs
		WHERE suite_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(suite_id, ''), scenario, kind, input_state, started_at,
		       duration_ms, error, message_count, seq
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ReadMessageRows returns the stored messages of a run in emission order.
// Returns an empty slice (not nil) if the run produced no messages.
func (s *Store) ReadMessageRows(ctx context.Context, runID string) ([]MessageRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, type, stream, fingerprint, body
		FROM messages
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := []MessageRow{}
	for rows.Next() {
		var row MessageRow
		var body string
		if err := rows.Scan(&row.RunID, &row.Seq, &row.Type, &row.Stream, &row.Fingerprint, &body); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		row.Body = jsontext.Value(body)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// ReadVerdicts returns the verdicts of a suite in the order they were
// recorded. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadVerdicts(ctx context.Context, suiteID string) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suite_id, scenario, status, detail, seq
		FROM verdicts
		WHERE suite_id = ?
		ORDER BY seq ASC, scenario COLLATE BINARY ASC
	`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	verdicts := []Verdict{}
	for rows.Next() {
		var v Verdict
		if err := rows.Scan(&v.SuiteID, &v.Scenario, &v.Status, &v.Detail, &v.Seq); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return verdicts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSuite(sc scanner) (Suite, error) {
	var suite Suite
	var startedAt, finishedAt string
	if err := sc.Scan(&suite.ID, &suite.ConfigPath, &suite.Status, &startedAt, &finishedAt, &suite.Seq); err != nil {
		if err == sql.ErrNoRows {
			return Suite{}, err
		}
		return Suite{}, fmt.Errorf("scan suite: %w", err)
	}

	var err error
	if suite.StartedAt, err = parseTime(startedAt); err != nil {
		return Suite{}, err
	}
	if suite.FinishedAt, err = parseTime(finishedAt); err != nil {
		return Suite{}, err
	}
	return suite, nil
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var kind, startedAt string
	var inputState sql.NullString
	var durationMS int64
	err := sc.Scan(
		&run.ID,
		&run.SuiteID,
		&run.Scenario,
		&kind,
		&inputState,
		&startedAt,
		&durationMS,
		&run.Error,
		&run.MessageCount,
		&run.Seq,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Kind = RunKind(kind)
	if inputState.Valid {
		run.InputState = jsontext.Value(inputState.String)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	return run, nil
}
