package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/config"
	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/runner"
	"github.com/as42sl/airbyte/internal/store"
)

// Scenario names, in execution order.
const (
	ScenarioTwoSequentialReads   = "two_sequential_reads"
	ScenarioReadSequentialSlices = "read_sequential_slices"
	ScenarioFutureState          = "state_with_abnormally_large_values"
)

// Deps are the collaborators of a Suite.
type Deps struct {
	// Runner invokes the connector. Required.
	Runner runner.Runner

	// Inputs are the connector config, configured catalog and optional
	// future state. Required.
	Inputs *config.Inputs

	// Tests parameterizes the scenarios.
	Tests config.Incremental

	// Timeout bounds each scenario. Zero means config.DefaultTimeout.
	Timeout time.Duration

	// Store receives one verdict per scenario when set.
	Store   *store.Store
	SuiteID string

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Suite is the incremental conformance suite for one connector.
type Suite struct {
	runner  runner.Runner
	inputs  *config.Inputs
	tests   config.Incremental
	timeout time.Duration
	store   *store.Store
	suiteID string
	logger  *slog.Logger

	catalog *catalog.Catalog
	cursors map[string]*catalog.CursorLocation
}

// New prepares a suite. The configured catalog is narrowed to its
// incremental streams and every stream's cursor is resolved up front, so
// configuration problems surface here as *catalog.ConfigError.
func New(deps Deps) (*Suite, error) {
	if deps.Runner == nil {
		return nil, fmt.Errorf("harness: runner is required")
	}
	if deps.Inputs == nil || deps.Inputs.Catalog == nil {
		return nil, fmt.Errorf("harness: configured catalog is required")
	}

	cat, err := deps.Inputs.Catalog.ForIncremental()
	if err != nil {
		return nil, err
	}
	cursors, err := catalog.ResolveCursors(cat, deps.Tests.CursorPaths)
	if err != nil {
		return nil, err
	}

	s := &Suite{
		runner:  deps.Runner,
		inputs:  deps.Inputs,
		tests:   deps.Tests,
		timeout: deps.Timeout,
		store:   deps.Store,
		suiteID: deps.SuiteID,
		logger:  deps.Logger,
		catalog: cat,
		cursors: cursors,
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultTimeout
	}
	if s.tests.MinBatchesToTest <= 0 {
		s.tests.MinBatchesToTest = config.DefaultMinBatchesToTest
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, name := range cat.Names() {
		s.logger.Debug("resolved cursor", "stream", name, "location", cursors[name].String())
	}
	return s, nil
}

// Catalog returns the incremental catalog the connector is driven with.
func (s *Suite) Catalog() *catalog.Catalog {
	return s.catalog
}

// scenario is one check of the suite.
type scenario struct {
	name string
	skip string // non-empty skips the scenario with this reason
	run  func(ctx context.Context, res *Result) error
}

func (s *Suite) scenarios() []scenario {
	list := []scenario{
		{name: ScenarioTwoSequentialReads, run: s.twoSequentialReads},
		{name: ScenarioReadSequentialSlices, run: s.readSequentialSlices},
		{name: ScenarioFutureState, run: s.stateWithAbnormallyLargeValues},
	}
	if s.tests.SkipComprehensive {
		list[1].skip = "skip_comprehensive_incremental_tests is set"
	}
	if s.inputs.FutureState == nil {
		list[2].skip = "future_state_path is not configured"
	}
	if len(s.catalog.Streams) == 0 {
		for i := range list {
			list[i].skip = "configured catalog has no incremental streams"
		}
	}
	return list
}

// Run executes every scenario in order and returns the report. It only
// returns an error when ctx is cancelled or a verdict cannot be stored;
// scenario failures are part of the report.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	report := &Report{Pass: true, Results: []*Result{}}
	for _, sc := range s.scenarios() {
		res := s.runScenario(ctx, sc)
		report.Results = append(report.Results, res)
		if res.Status == StatusFail || res.Status == StatusError {
			report.Pass = false
		}

		if s.store != nil {
			_, err := s.store.WriteVerdict(context.WithoutCancel(ctx), store.Verdict{
				SuiteID:  s.suiteID,
				Scenario: res.Scenario,
				Status:   string(res.Status),
				Detail:   detail(res),
			})
			if err != nil {
				return report, fmt.Errorf("store verdict: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Suite) runScenario(ctx context.Context, sc scenario) *Result {
	res := NewResult(sc.name)
	logger := s.logger.With("scenario", sc.name)
	if sc.skip != "" {
		res.Skip(sc.skip)
		logger.Info("scenario skipped", "reason", sc.skip)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = runner.WithScenario(ctx, sc.name)

	err := sc.run(ctx, res)
	var assertErr *AssertionError
	switch {
	case err == nil:
	case errors.As(err, &assertErr):
		res.AddError(err.Error())
	default:
		res.Abort(err.Error())
	}

	logger.Info("scenario finished",
		"status", string(res.Status),
		"reads", res.Reads,
		"compared", res.Compared)
	return res
}

func detail(res *Result) string {
	if res.Reason != "" {
		return res.Reason
	}
	return strings.Join(res.Errors, "\n")
}

func (s *Suite) read(ctx context.Context, res *Result) ([]message.Message, error) {
	res.Reads++
	return s.runner.Read(ctx, s.inputs.ConnectorConfig, s.catalog)
}

func (s *Suite) readWithState(ctx context.Context, res *Result, st jsontext.Value) ([]message.Message, error) {
	res.Reads++
	return s.runner.ReadWithState(ctx, s.inputs.ConnectorConfig, s.catalog, st)
}
