// Package errors provides centralized error handling for foundry.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the orchestration core. All error types can be checked using errors.Is().
//
// The sentinels are grouped by the taxonomy the engine reports to callers:
// configuration, state, tool, agent and build-control errors.
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. These are fatal at startup.
var (
	// ErrConfig is the umbrella for registry or configuration invariants
	// violated at load time.
	ErrConfig = errors.New("configuration error")

	// ErrCycleDetected indicates the agent graph contains a dependency cycle.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrUnknownDependency indicates an agent depends on a name that is not registered.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrMissingEffect indicates an agent is not wired to any observable effect.
	ErrMissingEffect = errors.New("agent has no effect")

	// ErrDuplicateAgent indicates the same agent name was registered twice.
	ErrDuplicateAgent = errors.New("duplicate agent")

	// ErrInvalidDescriptor indicates an agent descriptor has an invalid field
	// (non-positive timeout, unknown criticality, empty name).
	ErrInvalidDescriptor = errors.New("invalid agent descriptor")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// State errors. These are always surfaced to the caller.
var (
	// ErrState indicates the state document could not be serialized or persisted.
	ErrState = errors.New("state error")

	// ErrLockTimeout indicates the per-project lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrInvalidStateValue indicates a value does not match the schema type of a known key.
	ErrInvalidStateValue = errors.New("invalid state value")

	// ErrEmptyValue indicates a required value was empty.
	ErrEmptyValue = errors.New("empty value")
)

// Tool errors. These are carried structurally on ToolInvocation and never
// returned to agents as Go errors.
var (
	// ErrToolTimeout indicates a command or HTTP call exceeded its timeout.
	ErrToolTimeout = errors.New("tool timeout exceeded")

	// ErrNonZeroExit indicates a command finished with a non-zero exit code.
	ErrNonZeroExit = errors.New("command exited non-zero")

	// ErrPathEscape indicates a path resolved outside the project workspace.
	ErrPathEscape = errors.New("path escapes workspace")

	// ErrNetwork indicates an outbound request failed at the transport level.
	ErrNetwork = errors.New("network error")

	// ErrBadToolArgs indicates a tool request was missing required arguments.
	ErrBadToolArgs = errors.New("bad tool arguments")

	// ErrCommandNotAllowed indicates a command is not on the run allowlist.
	ErrCommandNotAllowed = errors.New("command not allowlisted")

	// ErrUnsafeURL indicates an outbound URL targets a disallowed scheme or host.
	ErrUnsafeURL = errors.New("url not allowed")

	// ErrReadOnlyQuery indicates a non-SELECT statement was sent to the query tool.
	ErrReadOnlyQuery = errors.New("only SELECT statements are allowed")
)

// Agent errors. These drive the criticality policy.
var (
	// ErrEmptyOutput indicates a worker returned no usable output.
	ErrEmptyOutput = errors.New("empty output")

	// ErrProviderUnavailable indicates no credentials are configured for a provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrAllProvidersFailed indicates every provider in the fallback chain failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrUnknownAgent indicates an agent name is not present in the registry.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNoWorker indicates a tool or composite agent has no worker function wired.
	ErrNoWorker = errors.New("no worker registered for agent")
)

// Build control errors.
var (
	// ErrBuildAborted indicates a critical agent failed and the build stopped.
	ErrBuildAborted = errors.New("build aborted")

	// ErrBuildInProgress indicates another build for the same project is running.
	ErrBuildInProgress = errors.New("build already in progress for project")
)

// CycleError names the agents that form a dependency cycle.
// It matches both ErrCycleDetected and ErrConfig.
type CycleError struct {
	Nodes []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Nodes, " -> "))
}

// Is reports whether target is one of the sentinels this error represents.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected || target == ErrConfig
}

// BuildAbortedError is returned when a critical agent fails.
// It carries everything a caller needs to show a user-visible failure.
type BuildAbortedError struct {
	// Agent is the name of the aborting agent.
	Agent string
	// Kind is the classified agent error kind (timeout, provider_error, ...).
	Kind string
	// Remediation is the registry hint for this agent and kind.
	Remediation string
	// StatePath is where the partial state was preserved.
	StatePath string
	// Cause is the underlying worker error, if any.
	Cause error
}

// Error implements the error interface.
func (e *BuildAbortedError) Error() string {
	msg := fmt.Sprintf("%s: agent %q failed with %s", ErrBuildAborted, e.Agent, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is matches ErrBuildAborted.
func (e *BuildAbortedError) Is(target error) bool {
	return target == ErrBuildAborted
}

// Unwrap returns the underlying cause.
func (e *BuildAbortedError) Unwrap() error {
	return e.Cause
}

// AsBuildAborted extracts a BuildAbortedError from an error chain.
func AsBuildAborted(err error) (*BuildAbortedError, bool) {
	var e *BuildAbortedError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
// The CLI uses it for invalid input such as a registry that fails its checks.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
