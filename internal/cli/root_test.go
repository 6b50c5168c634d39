package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sat", cmd.Use)
	assert.Contains(t, cmd.Long, "incremental sync conformance suite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"test", "validate", "runs", "inspect"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	dbFlag := testCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	inspectCmd, _, err := cmd.Find([]string{"inspect"})
	require.NoError(t, err)

	minFlag := inspectCmd.Flags().Lookup("min-batches")
	require.NotNil(t, minFlag)
	assert.Equal(t, "10", minFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"runs", "--db", "x.db", "--format", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newLogger(buf, tt.verbose)

			logger.Debug("resolved cursor", "stream", "users")
			logger.Warn("finish suite")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("resolved cursor")))
			assert.Contains(t, buf.String(), "finish suite")
		})
	}
}
