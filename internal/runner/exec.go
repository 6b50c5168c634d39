package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/as42sl/airbyte/internal/catalog"
	"github.com/as42sl/airbyte/internal/config"
	"github.com/as42sl/airbyte/internal/message"
)

const defaultStderrTail = 20

// killGrace bounds how long Wait waits for the output pipes to close after
// the process was killed.
const killGrace = 2 * time.Second

// ProcessError reports a connector process that failed.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   []string
	Err      error
}

func (e *ProcessError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "connector %s: %v", e.Command, e.Err)
	if len(e.Stderr) > 0 {
		b.WriteString("\nstderr (last lines):")
		for _, line := range e.Stderr {
			b.WriteString("\n  ")
			b.WriteString(line)
		}
	}
	return b.String()
}

func (e *ProcessError) Unwrap() error { return e.Err }

// inputFile is one file argument of a read.
type inputFile struct {
	flag string
	name string
	data []byte
}

// Exec runs a connector as a child process:
//
//	<command...> read --config F --catalog F [--state F]
//
// Inputs are written to a temporary directory removed after the call.
// Stdout is decoded as JSON lines; the tail of stderr is kept for errors.
type Exec struct {
	command    []string
	dir        string
	env        []string
	stderrTail int
	logger     *slog.Logger
}

// ExecOption configures an Exec.
type ExecOption func(*Exec)

// WithLogger sets the logger for process output.
func WithLogger(l *slog.Logger) ExecOption {
	return func(e *Exec) {
		e.logger = l
	}
}

// WithStderrTail sets how many stderr lines ProcessError keeps.
func WithStderrTail(n int) ExecOption {
	return func(e *Exec) {
		e.stderrTail = n
	}
}

// NewExec builds an Exec for the configured connector. The env file, if
// any, is read once here.
func NewExec(c config.Connector, opts ...ExecOption) (*Exec, error) {
	if len(c.Command) == 0 {
		return nil, fmt.Errorf("connector command is empty")
	}
	e := &Exec{
		command:    slices.Clone(c.Command),
		dir:        c.WorkDir,
		stderrTail: defaultStderrTail,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if c.EnvFile != "" {
		vars, err := godotenv.Read(c.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("read env file: %w", err)
		}
		for _, k := range slices.Sorted(maps.Keys(vars)) {
			e.env = append(e.env, k+"="+vars[k])
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Read implements Runner.
func (e *Exec) Read(ctx context.Context, cfg jsontext.Value, cat *catalog.Catalog) ([]message.Message, error) {
	return e.run(ctx, cfg, cat, nil)
}

// ReadWithState implements Runner.
func (e *Exec) ReadWithState(ctx context.Context, cfg jsontext.Value, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error) {
	if state == nil {
		state = jsontext.Value("{}")
	}
	return e.run(ctx, cfg, cat, state)
}

func (e *Exec) run(ctx context.Context, cfg jsontext.Value, cat *catalog.Catalog, state jsontext.Value) ([]message.Message, error) {
	tmp, err := os.MkdirTemp("", "sat-read-*")
	if err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	catalogJSON, err := cat.Marshal()
	if err != nil {
		return nil, err
	}

	args := slices.Clone(e.command[1:])
	args = append(args, "read")
	if cfg == nil {
		cfg = jsontext.Value("{}")
	}
	inputs := []inputFile{
		{"--config", "config.json", cfg},
		{"--catalog", "catalog.json", catalogJSON},
	}
	if state != nil {
		inputs = append(inputs, inputFile{"--state", "state.json", state})
	}
	for _, in := range inputs {
		path := filepath.Join(tmp, in.name)
		if err := os.WriteFile(path, in.data, 0o600); err != nil {
			return nil, fmt.Errorf("write %s: %w", in.name, err)
		}
		args = append(args, in.flag, path)
	}

	cmd := exec.CommandContext(ctx, e.command[0], args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.WaitDelay = killGrace
	killProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	name := filepath.Base(e.command[0])
	e.logger.Debug("starting connector", "command", e.command, "with_state", state != nil)
	if err := cmd.Start(); err != nil {
		return nil, &ProcessError{Command: name, ExitCode: -1, Err: err}
	}

	// Descendants of the connector may hold the pipes open after it is
	// killed; closing the read ends unblocks the readers below.
	stopClosing := context.AfterFunc(ctx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stopClosing()

	var (
		log     []message.Message
		skipped int
		tail    []string
	)
	var g errgroup.Group
	g.Go(func() error {
		rd := message.NewReader(stdout)
		defer func() { skipped = rd.Skipped() }()
		for {
			m, err := rd.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				// Keep draining so the process never blocks on a full pipe.
				_, _ = io.Copy(io.Discard, stdout)
				return fmt.Errorf("decode connector output: %w", err)
			}
			log = append(log, m)
		}
	})
	g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			e.logger.Debug("connector stderr", "line", line)
			tail = append(tail, line)
			if len(tail) > e.stderrTail {
				tail = tail[1:]
			}
		}
		_, _ = io.Copy(io.Discard, stderr)
		return nil
	})

	decodeErr := g.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("connector %s: %w", name, ctxErr)
	}
	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &ProcessError{Command: name, ExitCode: code, Stderr: tail, Err: waitErr}
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	e.logger.Debug("connector finished", "messages", len(log), "skipped_lines", skipped)
	return log, nil
}
