package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/as42sl/airbyte/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	SuiteID  string // empty selects the most recent suite
}

// RunSummary is one connector invocation of a suite.
type RunSummary struct {
	ID           string `json:"id"`
	Scenario     string `json:"scenario"`
	Kind         string `json:"kind"`
	DurationMS   int64  `json:"duration_ms"`
	MessageCount int    `json:"message_count"`
	Error        string `json:"error,omitempty"`
}

// VerdictSummary is the stored outcome of one scenario.
type VerdictSummary struct {
	Scenario string `json:"scenario"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// RunsResult holds the complete runs output.
type RunsResult struct {
	SuiteID    string           `json:"suite_id"`
	ConfigPath string           `json:"config_path"`
	Status     string           `json:"status"`
	StartedAt  string           `json:"started_at"`
	Runs       []RunSummary     `json:"runs"`
	Verdicts   []VerdictSummary `json:"verdicts"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the recorded runs of a suite",
		Long: `List the connector invocations and scenario verdicts recorded for a suite.

Without --suite the most recent suite in the database is shown.

Examples:
  sat runs --db ./runs.db
  sat runs --db ./runs.db --suite 0190d3f2-...
  sat runs --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SuiteID, "suite", "", "suite id (defaults to the most recent suite)")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	var suite store.Suite
	if opts.SuiteID != "" {
		suite, err = st.ReadSuite(ctx, opts.SuiteID)
	} else {
		suite, err = st.LastSuite(ctx)
	}
	if errors.Is(err, sql.ErrNoRows) {
		if opts.SuiteID != "" {
			return commandError(formatter, ErrCodeInput, "suite not found", fmt.Errorf("no suite %q", opts.SuiteID))
		}
		return commandError(formatter, ErrCodeInput, "no suites recorded", fmt.Errorf("database %s is empty", opts.Database))
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read suite", err)
	}

	runs, err := st.ListRuns(ctx, suite.ID)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}
	verdicts, err := st.ReadVerdicts(ctx, suite.ID)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read verdicts", err)
	}

	result := buildRunsResult(suite, runs, verdicts)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputRunsText(cmd.OutOrStdout(), result)
	return nil
}

func buildRunsResult(suite store.Suite, runs []store.Run, verdicts []store.Verdict) RunsResult {
	result := RunsResult{
		SuiteID:    suite.ID,
		ConfigPath: suite.ConfigPath,
		Status:     suite.Status,
		StartedAt:  suite.StartedAt.UTC().Format(time.RFC3339),
		Runs:       make([]RunSummary, 0, len(runs)),
		Verdicts:   make([]VerdictSummary, 0, len(verdicts)),
	}
	for _, r := range runs {
		result.Runs = append(result.Runs, RunSummary{
			ID:           r.ID,
			Scenario:     r.Scenario,
			Kind:         string(r.Kind),
			DurationMS:   r.Duration.Milliseconds(),
			MessageCount: r.MessageCount,
			Error:        r.Error,
		})
	}
	for _, v := range verdicts {
		result.Verdicts = append(result.Verdicts, VerdictSummary{
			Scenario: v.Scenario,
			Status:   v.Status,
			Detail:   v.Detail,
		})
	}
	return result
}

func outputRunsText(w io.Writer, result RunsResult) {
	fmt.Fprintf(w, "Suite %s (%s)\n", result.SuiteID, result.Status)
	fmt.Fprintf(w, "  config:  %s\n", result.ConfigPath)
	fmt.Fprintf(w, "  started: %s\n", result.StartedAt)

	fmt.Fprintf(w, "\nRuns (%d):\n", len(result.Runs))
	for _, r := range result.Runs {
		fmt.Fprintf(w, "  %s  %-36s %-16s %5d msgs %6dms",
			r.ID, r.Scenario, r.Kind, r.MessageCount, r.DurationMS)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s", r.Error)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nVerdicts (%d):\n", len(result.Verdicts))
	for _, v := range result.Verdicts {
		fmt.Fprintf(w, "  %-36s %s\n", v.Scenario, v.Status)
	}
}
