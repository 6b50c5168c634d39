package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"

	"github.com/as42sl/airbyte/internal/checkpoint"
	"github.com/as42sl/airbyte/internal/config"
	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/state"
	"github.com/as42sl/airbyte/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database   string
	RunID      string
	File       string
	MinBatches int
}

// InspectResult describes how the suite would checkpoint a message log.
type InspectResult struct {
	Source        string         `json:"source"`
	Messages      map[string]int `json:"messages"`
	SkippedLines  int            `json:"skipped_lines"`
	Unanchored    int            `json:"unanchored_records"`
	Batches       int            `json:"batches"`
	UniqueBatches int            `json:"unique_batches"`
	Sampled       []int          `json:"sampled"`
	Shape         string         `json:"shape,omitzero"`
	Streams       []string       `json:"streams,omitzero"`
	State         jsontext.Value `json:"state,omitzero"` // resume input after the last STATE
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show how a message log is checkpointed",
		Long: `Partition a message log into checkpoint batches the way the suite does.

The log is either a recorded run (--db with --run) or a file of protocol
messages, one JSON object per line (--file). Non-protocol lines in a file
are counted and skipped.

Shows the batch count before and after removing duplicate batches, the
batches sampled for resumption, and the state a resumed read would be
given after the last checkpoint.

Examples:
  sat inspect --db ./runs.db --run 0190d3f2-...
  sat inspect --file ./read.jsonl --min-batches 5
  sat inspect --file ./read.jsonl --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to inspect (requires --db)")
	cmd.Flags().StringVar(&opts.File, "file", "", "path to a JSON lines message log")
	cmd.Flags().IntVar(&opts.MinBatches, "min-batches", config.DefaultMinBatchesToTest, "minimum number of batches to sample")
	cmd.MarkFlagsRequiredTogether("db", "run")
	cmd.MarkFlagsOneRequired("run", "file")
	cmd.MarkFlagsMutuallyExclusive("run", "file")

	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.MinBatches < 1 {
		return commandError(formatter, ErrCodeInput, "invalid flags", errors.New("--min-batches must be at least 1"))
	}

	var (
		log     []message.Message
		skipped int
		source  string
		err     error
	)
	if opts.File != "" {
		source = opts.File
		log, skipped, err = readLogFile(opts.File)
		if err != nil {
			return commandError(formatter, ErrCodeInput, "failed to read log", err)
		}
	} else {
		source = "run " + opts.RunID
		log, err = replayStoredRun(cmd, opts.Database, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return commandError(formatter, ErrCodeInput, "run not found", err)
		}
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to replay run", err)
		}
	}
	formatter.VerboseLog("Loaded %d message(s) from %s", len(log), source)

	result, err := inspectLog(log, opts.MinBatches)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to inspect log", err)
	}
	result.Source = source
	result.SkippedLines = skipped

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputInspectText(cmd.OutOrStdout(), result)
	return nil
}

func readLogFile(path string) ([]message.Message, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	rd := message.NewReader(f)
	var log []message.Message
	for {
		m, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return log, rd.Skipped(), nil
		}
		if err != nil {
			return nil, rd.Skipped(), err
		}
		log = append(log, m)
	}
}

func replayStoredRun(cmd *cobra.Command, dbPath, runID string) ([]message.Message, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	_, log, err := st.ReplayRun(cmd.Context(), runID)
	return log, err
}

// inspectLog applies the checkpoint pipeline of the sequential slices
// scenario to log.
func inspectLog(log []message.Message, minBatches int) (InspectResult, error) {
	result := InspectResult{
		Messages: map[string]int{},
		Sampled:  []int{},
	}
	for t, n := range message.Counts(log) {
		result.Messages[string(t)] = n
	}

	batches := checkpoint.Partition(log)
	unique, err := checkpoint.Dedup(batches)
	if err != nil {
		return InspectResult{}, err
	}
	result.Unanchored = len(checkpoint.Unanchored(log))
	result.Batches = len(batches)
	result.UniqueBatches = len(unique)
	if len(unique) > 0 {
		result.Sampled = checkpoint.SampleIndices(len(unique), minBatches)
	}

	states := message.States(log)
	if len(states) == 0 {
		return result, nil
	}
	final := state.Normalize(states)
	result.Shape = final.Shape.String()
	result.Streams = final.Streams()
	result.State, err = final.Input()
	if err != nil {
		return InspectResult{}, fmt.Errorf("render state: %w", err)
	}
	return result, nil
}

func outputInspectText(w io.Writer, result InspectResult) {
	fmt.Fprintf(w, "Log: %s\n", result.Source)

	types := make([]string, 0, len(result.Messages))
	for t := range result.Messages {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-8s %d\n", t, result.Messages[t])
	}
	if result.SkippedLines > 0 {
		fmt.Fprintf(w, "  skipped %d non-protocol line(s)\n", result.SkippedLines)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batches: %d (%d unique)\n", result.Batches, result.UniqueBatches)
	if result.Unanchored > 0 {
		fmt.Fprintf(w, "Unanchored records: %d\n", result.Unanchored)
	}
	fmt.Fprintf(w, "Sampled: %v\n", result.Sampled)

	if result.Shape == "" {
		fmt.Fprintln(w, "State: none")
		return
	}
	fmt.Fprintf(w, "State (%s): %s\n", result.Shape, string(result.State))
}
