package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/errors"
)

func TestRootCmd_Help(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	for _, want := range []string{"Foundry", "--output", "--verbose", "--quiet", "build", "state", "plan", "agents", "check", "mcp"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"full", BuildInfo{Version: "1.0.0", Commit: "abc1234", Date: "2026-01-01"}, "1.0.0 (commit: abc1234, built: 2026-01-01)"},
		{"defaults", BuildInfo{}, "dev (commit: none, built: unknown)"},
		{"partial", BuildInfo{Version: "2.0.0-beta"}, "2.0.0-beta (commit: none, built: unknown)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatVersion(tc.info))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "1.2.3"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "foundry 1.2.3")
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"version", "-o", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"aborted", &errors.BuildAbortedError{Agent: "Planner", Kind: "timeout"}, ExitBuildAborted},
		{"exit code 2 wrapper", errors.NewExitCode2Error(fmt.Errorf("bad")), ExitInvalidInput},
		{"config", fmt.Errorf("load: %w", errors.ErrInvalidConfig), ExitInvalidInput},
		{"cycle", &errors.CycleError{Nodes: []string{"a", "b", "a"}}, ExitInvalidInput},
		{"cobra flag", fmt.Errorf("unknown flag: --nope"), ExitInvalidInput},
		{"other", errors.ErrState, ExitError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestIsValidOutputFormat(t *testing.T) {
	assert.True(t, IsValidOutputFormat("text"))
	assert.True(t, IsValidOutputFormat("json"))
	assert.False(t, IsValidOutputFormat("yaml"))
}

func TestGlobalFlags_Overrides(t *testing.T) {
	f := &GlobalFlags{StateBackend: "sqlite", MaxParallel: 2, Model: "m"}
	o := f.overrides()
	assert.Equal(t, "sqlite", o.State.Backend)
	assert.Equal(t, 2, o.Engine.MaxParallel)
	assert.Equal(t, "m", o.Providers.Model)
	assert.Empty(t, o.Workspace.Root)
}
