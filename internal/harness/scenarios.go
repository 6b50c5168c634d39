package harness

import (
	"context"
	"fmt"

	"github.com/as42sl/airbyte/internal/checkpoint"
	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/state"
)

// fullRead runs the unseeded read every scenario but the future state one
// starts from, and checks it against its own final state.
func (s *Suite) fullRead(ctx context.Context, res *Result) ([]message.Message, state.Canonical, error) {
	log, err := s.read(ctx, res)
	if err != nil {
		return nil, state.Canonical{}, err
	}
	if err := assertHasStatesAndRecords(log); err != nil {
		return nil, state.Canonical{}, err
	}

	latest := state.Normalize(message.States(log))
	pairs, err := recordsWithState(message.Records(log), latest, s.cursors)
	if err != nil {
		return nil, state.Canonical{}, err
	}
	res.Compared += len(pairs)
	if err := assertFirstReadBounded(pairs); err != nil {
		return nil, state.Canonical{}, err
	}
	return log, latest, nil
}

// twoSequentialReads resumes once from the final state of a full read.
func (s *Suite) twoSequentialReads(ctx context.Context, res *Result) error {
	_, latest, err := s.fullRead(ctx, res)
	if err != nil {
		return err
	}

	input, err := latest.Input()
	if err != nil {
		return err
	}
	log, err := s.readWithState(ctx, res, input)
	if err != nil {
		return err
	}

	pairs, err := recordsWithState(message.Records(log), latest, s.cursors)
	if err != nil {
		return err
	}
	res.Compared += len(pairs)
	return assertResumedReadBounded(pairs, s.tests.ThresholdDays)
}

// readSequentialSlices resumes from the state accumulated up to each
// sampled checkpoint batch of a full read.
func (s *Suite) readSequentialSlices(ctx context.Context, res *Result) error {
	log, latest, err := s.fullRead(ctx, res)
	if err != nil {
		return err
	}

	batches, err := checkpoint.Dedup(checkpoint.Partition(log))
	if err != nil {
		return err
	}
	selected := checkpoint.Selected(len(batches), s.tests.MinBatchesToTest)
	s.logger.Debug("partitioned full read",
		"scenario", ScenarioReadSequentialSlices,
		"batches", len(batches),
		"sampled", len(selected),
		"shape", latest.Shape.String())

	acc := state.NewAccumulator(latest.Shape)
	for i, b := range batches {
		acc.Apply(b.Anchor)
		if !selected[i] {
			continue
		}

		current := acc.Snapshot()
		input, err := current.Input()
		if err != nil {
			return err
		}
		out, err := s.readWithState(ctx, res, input)
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}

		pairs, err := recordsWithState(message.Records(out), current, s.cursors)
		if err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		res.Compared += len(pairs)
		if err := assertResumedReadBounded(pairs, s.tests.ThresholdDays); err != nil {
			return fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return nil
}

// stateWithAbnormallyLargeValues resumes from a state beyond any record.
func (s *Suite) stateWithAbnormallyLargeValues(ctx context.Context, res *Result) error {
	log, err := s.readWithState(ctx, res, s.inputs.FutureState)
	if err != nil {
		return err
	}
	return assertFutureStateRead(log)
}
