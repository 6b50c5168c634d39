package store

import (
	"context"
	"fmt"

	"github.com/as42sl/airbyte/internal/message"
)

// BeginSuite inserts a running suite and assigns its seq.
func (s *Store) BeginSuite(ctx context.Context, suite Suite) (Suite, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Suite{}, fmt.Errorf("begin suite: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "suites")
	if err != nil {
		return Suite{}, fmt.Errorf("begin suite: %w", err)
	}
	if suite.Status == "" {
		suite.Status = StatusRunning
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO suites (id, config_path, status, started_at, seq)
		VALUES (?, ?, ?, ?, ?)
	`, suite.ID, suite.ConfigPath, suite.Status, formatTime(suite.StartedAt), seq)
	if err != nil {
		return Suite{}, fmt.Errorf("begin suite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Suite{}, fmt.Errorf("begin suite: commit: %w", err)
	}
	suite.Seq = seq
	return suite, nil
}

// FinishSuite records the final status of a suite.
func (s *Store) FinishSuite(ctx context.Context, suite Suite) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suites SET status = ?, finished_at = ? WHERE id = ?
	`, suite.Status, formatTime(suite.FinishedAt), suite.ID)
	if err != nil {
		return fmt.Errorf("finish suite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish suite: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish suite: unknown suite %q", suite.ID)
	}
	return nil
}

// WriteRun stores a run and its messages atomically. Messages are numbered
// from 1 in log order. The stored run, with its seq, is returned.
func (s *Store) WriteRun(ctx context.Context, run Run, log []message.Message) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "runs")
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	var suiteID, inputState any
	if run.SuiteID != "" {
		suiteID = run.SuiteID
	}
	if run.InputState != nil {
		inputState = string(run.InputState)
	}
	run.MessageCount = len(log)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, suite_id, scenario, kind, input_state, started_at, duration_ms, error, message_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		suiteID,
		run.Scenario,
		string(run.Kind),
		inputState,
		formatTime(run.StartedAt),
		run.Duration.Milliseconds(),
		run.Error,
		run.MessageCount,
		seq,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (run_id, seq, type, stream, fingerprint, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare: %w", err)
	}
	defer stmt.Close()

	for i, m := range log {
		row, err := messageRow(run.ID, int64(i+1), m)
		if err != nil {
			return Run{}, fmt.Errorf("write run: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, row.RunID, row.Seq, row.Type, row.Stream, row.Fingerprint, string(row.Body)); err != nil {
			return Run{}, fmt.Errorf("write run: message %d: %w", row.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return run, nil
}

// WriteVerdict records a scenario outcome. Writing the same scenario twice
// for a suite replaces the earlier verdict.
func (s *Store) WriteVerdict(ctx context.Context, v Verdict) (Verdict, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("write verdict: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "verdicts")
	if err != nil {
		return Verdict{}, fmt.Errorf("write verdict: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verdicts (suite_id, scenario, status, detail, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(suite_id, scenario) DO UPDATE SET
			status = excluded.status,
			detail = excluded.detail,
			seq = excluded.seq
	`, v.SuiteID, v.Scenario, v.Status, v.Detail, seq)
	if err != nil {
		return Verdict{}, fmt.Errorf("write verdict: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Verdict{}, fmt.Errorf("write verdict: commit: %w", err)
	}
	v.Seq = seq
	return v, nil
}
