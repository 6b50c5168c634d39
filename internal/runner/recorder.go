package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/store"
)

// Recorder persists every invocation of the wrapped Runner, including
// failed ones, to the run store.
type Recorder struct {
	next    Runner
	store   *store.Store
	suiteID string
	ids     store.IDGenerator
	now     func() time.Time
	logger  *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator sets the run id generator. Defaults to UUIDv7.
func WithIDGenerator(g store.IDGenerator) RecorderOption {
	return func(r *Recorder) {
		r.ids = g
	}
}

// WithClock sets the wall clock used for run timestamps.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithRecorderLogger sets the logger.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// NewRecorder wraps next. Runs are attached to suiteID when it is non-empty.
func NewRecorder(next Runner, s *store.Store, suiteID string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		next:    next,
		store:   s,
		suiteID: suiteID,
		ids:     store.UUIDv7Generator{},
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read implements Runner.
func (r *Recorder) Read(ctx context.Context, cfg jsontext.Value, cat *catalog.Catalog) ([]message.Message, error) {
	return r.record(ctx, store.RunRead, nil, func() ([]message.Message, error) {
		return r.next.Read(ctx, cfg, cat)
	})
}

// ReadWithState implements Runner.
func (r *Recorder) ReadWithState(ctx context.Context, cfg jsontext.Value, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error) {
	return r.record(ctx, store.RunReadWithState, state, func() ([]message.Message, error) {
		return r.next.ReadWithState(ctx, cfg, cat, state)
	})
}

func (r *Recorder) record(ctx context.Context, kind store.RunKind, state jsontext.Value, call func() ([]message.Message, error)) ([]message.Message, error) {
	run := store.Run{
		ID:         r.ids.Generate(),
		SuiteID:    r.suiteID,
		Scenario:   ScenarioFrom(ctx),
		Kind:       kind,
		InputState: state,
		StartedAt:  r.now(),
	}

	log, callErr := call()
	run.Duration = r.now().Sub(run.StartedAt)
	if callErr != nil {
		run.Error = callErr.Error()
	}

	// The store write must survive a cancelled scenario context.
	stored, err := r.store.WriteRun(context.WithoutCancel(ctx), run, log)
	if err != nil {
		if callErr != nil {
			return nil, callErr
		}
		return nil, fmt.Errorf("record run: %w", err)
	}
	r.logger.Debug("recorded run",
		"run_id", stored.ID,
		"scenario", stored.Scenario,
		"kind", string(kind),
		"messages", stored.MessageCount)

	return log, callErr
}
