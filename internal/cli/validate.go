package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/config"
)

// StreamCursor is the resolved cursor location of one stream.
type StreamCursor struct {
	Stream      string   `json:"stream"`
	CursorField []string `json:"cursor_field"`
	StatePath   []string `json:"state_path"`
	Date        bool     `json:"date"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid             bool           `json:"valid"`
	Streams           []StreamCursor `json:"streams"`
	Skipped           []string       `json:"skipped,omitempty"` // non-incremental streams
	FutureState       bool           `json:"future_state"`
	SkipComprehensive bool           `json:"skip_comprehensive"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <acceptance-test-config.yml>",
		Short: "Validate a configuration without running the connector",
		Long: `Validate an acceptance test configuration and its fixtures.

Loads the configuration, reads every fixture it references and resolves
the cursor of each incremental stream, without invoking the connector.
Prints where each stream's cursor is read in records and in state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to load config", err)
	}
	formatter.VerboseLog("Reading fixtures from %s", cfg.FixturesURL())

	inputs, err := cfg.LoadInputs(cmd.Context())
	if err != nil {
		return commandError(formatter, ErrCodeFixtures, "failed to load fixtures", err)
	}

	cat, err := inputs.Catalog.ForIncremental()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid catalog", err)
	}
	cursors, err := catalog.ResolveCursors(cat, cfg.Tests.Incremental.CursorPaths)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to resolve cursors", err)
	}

	result := ValidationResult{
		Valid:             true,
		Streams:           []StreamCursor{},
		FutureState:       inputs.FutureState != nil,
		SkipComprehensive: cfg.Tests.Incremental.SkipComprehensive,
	}
	for _, name := range cat.Names() {
		loc := cursors[name]
		result.Streams = append(result.Streams, StreamCursor{
			Stream:      name,
			CursorField: loc.CursorField,
			StatePath:   loc.StatePath,
			Date:        loc.Field.IsDate(),
		})
	}
	for _, name := range inputs.Catalog.Names() {
		if _, ok := cat.Stream(name); !ok {
			result.Skipped = append(result.Skipped, name)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputValidateText(cmd.OutOrStdout(), result)
	return nil
}

func outputValidateText(w io.Writer, result ValidationResult) {
	if len(result.Streams) == 0 {
		fmt.Fprintln(w, "\u2713 Configuration valid, but the catalog has no incremental streams")
		return
	}

	fmt.Fprintf(w, "\u2713 Configuration valid (%d incremental stream(s))\n", len(result.Streams))
	for _, s := range result.Streams {
		kind := "value"
		if s.Date {
			kind = "date"
		}
		fmt.Fprintf(w, "  %s: record %s -> state %s (%s)\n",
			s.Stream, strings.Join(s.CursorField, "."), strings.Join(s.StatePath, "."), kind)
	}
	for _, name := range result.Skipped {
		fmt.Fprintf(w, "  %s: not incremental, skipped\n", name)
	}
	if !result.FutureState {
		fmt.Fprintln(w, "  future state: not configured")
	}
}
