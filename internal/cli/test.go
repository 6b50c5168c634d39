package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/config"
	"github.com/as42sl/airbyte/internal/harness"
	"github.com/as42sl/airbyte/internal/runner"
	"github.com/as42sl/airbyte/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Database string // overrides the store of the configuration
}

// runnerFactory builds the Runner that drives the connector.
type runnerFactory func(c config.Connector, logger *slog.Logger) (runner.Runner, error)

func execRunner(c config.Connector, logger *slog.Logger) (runner.Runner, error) {
	r, err := runner.NewExec(c, runner.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// TestOutput is the JSON payload of the test command.
type TestOutput struct {
	SuiteID string          `json:"suite_id,omitempty"`
	Status  harness.Status  `json:"status"`
	Report  *harness.Report `json:"report"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return newTestCommand(rootOpts, execRunner)
}

func newTestCommand(rootOpts *RootOptions, newRunner runnerFactory) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <acceptance-test-config.yml>",
		Short: "Run the incremental conformance suite",
		Long: `Run the incremental conformance suite against a connector.

Scenarios:
  two_sequential_reads                 resume once from the final state of a full read
  read_sequential_slices               resume from sampled intermediate checkpoints
  state_with_abnormally_large_values   a state far in the future yields no records

Exit codes:
  0 - at least one scenario passed and none failed or errored
  1 - a scenario failed or errored, or every scenario was skipped
      (for example, the catalog has no incremental streams)
  2 - command error (invalid config, missing fixtures, store error)

Examples:
  sat test ./acceptance-test-config.yml
  sat test ./acceptance-test-config.yml --db ./runs.db
  sat test ./acceptance-test-config.yml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd.Context(), opts, newRunner, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs and verdicts to this SQLite database")

	return cmd
}

func runTest(ctx context.Context, opts *TestOptions, newRunner runnerFactory, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := config.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Store = opts.Database
	}

	inputs, err := cfg.LoadInputs(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeFixtures, "failed to load fixtures", err)
	}

	r, err := newRunner(cfg.Connector, logger)
	if err != nil {
		return commandError(formatter, ErrCodeRunner, "failed to create runner", err)
	}

	deps := harness.Deps{
		Runner:  r,
		Inputs:  inputs,
		Tests:   cfg.Tests.Incremental,
		Timeout: cfg.Timeout,
		Logger:  logger,
	}

	var (
		st    *store.Store
		suite store.Suite
	)
	if cfg.Store != "" {
		st, err = store.Open(cfg.Store)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to open database", err)
		}
		defer st.Close()

		suite, err = st.BeginSuite(ctx, store.Suite{
			ID:         store.UUIDv7Generator{}.Generate(),
			ConfigPath: path,
			StartedAt:  time.Now().UTC(),
		})
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to begin suite", err)
		}
		formatter.VerboseLog("Recording suite %s to %s", suite.ID, cfg.Store)

		deps.Runner = runner.NewRecorder(r, st, suite.ID, runner.WithRecorderLogger(logger))
		deps.Store = st
		deps.SuiteID = suite.ID
	}

	finish := func(status string) {
		if st == nil {
			return
		}
		suite.Status = status
		suite.FinishedAt = time.Now().UTC()
		if err := st.FinishSuite(context.WithoutCancel(ctx), suite); err != nil {
			logger.Warn("finish suite", "suite", suite.ID, "error", err)
		}
	}

	s, err := harness.New(deps)
	if err != nil {
		finish(store.StatusError)
		var cfgErr *catalog.ConfigError
		if errors.As(err, &cfgErr) {
			return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
		}
		return commandError(formatter, ErrCodeConfig, "failed to prepare suite", err)
	}

	report, err := s.Run(ctx)
	if err != nil {
		finish(store.StatusError)
		return commandError(formatter, ErrCodeInterrupted, "suite interrupted", err)
	}
	finish(string(report.Status()))

	if opts.Format == "json" {
		if err := outputTestJSON(formatter, suite.ID, report); err != nil {
			return err
		}
	} else {
		outputTestText(cmd.OutOrStdout(), suite.ID, report)
	}

	switch {
	case !report.Pass:
		return NewExitError(ExitFailure, "incremental suite failed")
	case report.Status() == harness.StatusSkip:
		return NewExitError(ExitFailure, "no scenario ran")
	}
	return nil
}

// commandError reports err in the configured format and returns an
// ExitCommandError.
func commandError(f *OutputFormatter, code, message string, err error) error {
	if f.Format == "json" {
		_ = f.Error(code, message, err.Error())
	}
	return WrapExitError(ExitCommandError, message, err)
}

func outputTestJSON(f *OutputFormatter, suiteID string, report *harness.Report) error {
	out := TestOutput{SuiteID: suiteID, Status: report.Status(), Report: report}
	switch {
	case !report.Pass:
		return f.Error(ErrCodeTestFailed, "incremental suite failed", out)
	case out.Status == harness.StatusSkip:
		return f.Error(ErrCodeNothingTested, "no scenario ran", out)
	}
	return f.Success(out)
}

func outputTestText(w io.Writer, suiteID string, report *harness.Report) {
	for _, res := range report.Results {
		switch res.Status {
		case harness.StatusPass:
			fmt.Fprintf(w, "\u2713 %s (%d reads, %d cursors compared)\n", res.Scenario, res.Reads, res.Compared)
		case harness.StatusSkip:
			fmt.Fprintf(w, "- %s skipped: %s\n", res.Scenario, res.Reason)
		case harness.StatusError:
			fmt.Fprintf(w, "\u2717 %s errored: %s\n", res.Scenario, res.Reason)
		default:
			fmt.Fprintf(w, "\u2717 %s failed\n", res.Scenario)
			for _, e := range res.Errors {
				fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(e, "\n", "\n    "))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Result: %s\n", report.Status())
	if suiteID != "" {
		fmt.Fprintf(w, "Suite: %s\n", suiteID)
	}
}
