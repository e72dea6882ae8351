package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

func TestSentinelErrors_Messages(t *testing.T) {
	sentinels := []error{
		foundryerrors.ErrConfig,
		foundryerrors.ErrCycleDetected,
		foundryerrors.ErrMissingEffect,
		foundryerrors.ErrState,
		foundryerrors.ErrPathEscape,
		foundryerrors.ErrToolTimeout,
		foundryerrors.ErrEmptyOutput,
		foundryerrors.ErrBuildAborted,
	}
	for _, err := range sentinels {
		t.Run(err.Error(), func(t *testing.T) {
			msg := err.Error()
			require.NotEmpty(t, msg)
			assert.Equal(t, strings.ToLower(msg[:1]), msg[:1], "messages are lowercase")
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, foundryerrors.Wrap(nil, "context"))
		assert.NoError(t, foundryerrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("keeps chain", func(t *testing.T) {
		err := foundryerrors.Wrapf(foundryerrors.ErrState, "failed to save %s", "p1")
		require.Error(t, err)
		require.ErrorIs(t, err, foundryerrors.ErrState)
		assert.Equal(t, "failed to save p1: state error", err.Error())
	})

	t.Run("join matches both", func(t *testing.T) {
		detail := errors.New("disk full")
		err := foundryerrors.Join(foundryerrors.ErrState, detail)
		require.ErrorIs(t, err, foundryerrors.ErrState)
		require.ErrorIs(t, err, detail)
	})
}

func TestCycleError(t *testing.T) {
	err := &foundryerrors.CycleError{Nodes: []string{"A", "B", "A"}}

	require.ErrorIs(t, err, foundryerrors.ErrCycleDetected)
	require.ErrorIs(t, err, foundryerrors.ErrConfig)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestBuildAbortedError(t *testing.T) {
	cause := errors.New("model returned nothing")
	err := fmt.Errorf("run: %w", &foundryerrors.BuildAbortedError{
		Agent:       "Planner",
		Kind:        "empty_output",
		Remediation: "Planning failed.",
		Cause:       cause,
	})

	require.ErrorIs(t, err, foundryerrors.ErrBuildAborted)
	require.ErrorIs(t, err, cause)

	aborted, ok := foundryerrors.AsBuildAborted(err)
	require.True(t, ok)
	assert.Equal(t, "Planner", aborted.Agent)
	assert.Equal(t, "empty_output", aborted.Kind)

	_, ok = foundryerrors.AsBuildAborted(cause)
	assert.False(t, ok)
}

func TestActionable(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantMsg    string
		wantAction bool
	}{
		{"nil", nil, "", false},
		{"build in progress", foundryerrors.ErrBuildInProgress, "Another build is already running for this project.", true},
		{"wrapped cycle picks specific entry", &foundryerrors.CycleError{Nodes: []string{"A", "A"}}, "The agent graph contains a dependency cycle.", true},
		{"path escape has no action", foundryerrors.Wrap(foundryerrors.ErrPathEscape, "write"), "A file path resolved outside the project workspace.", false},
		{"unknown error passes through", errors.New("boom"), "boom", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, action := foundryerrors.Actionable(tc.err)
			assert.Equal(t, tc.wantMsg, msg)
			assert.Equal(t, tc.wantAction, action != "")
			assert.Equal(t, tc.wantMsg, foundryerrors.UserMessage(tc.err))
		})
	}
}

func TestExitCode2Error(t *testing.T) {
	err := foundryerrors.NewExitCode2Error(foundryerrors.ErrMissingEffect)
	assert.True(t, foundryerrors.IsExitCode2Error(fmt.Errorf("check: %w", err)))
	assert.False(t, foundryerrors.IsExitCode2Error(foundryerrors.ErrMissingEffect))
	assert.ErrorIs(t, err, foundryerrors.ErrMissingEffect)
}
