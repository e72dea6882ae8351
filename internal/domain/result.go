package domain

import "time"

// ExecutionResult is the outcome of one agent invocation within a build.
// Results live only for the duration of a build; the engine folds them into
// ProjectState.AgentResults before returning.
type ExecutionResult struct {
	// Agent is the registry name of the agent.
	Agent string `json:"agent"`

	// Output is the text the agent produced (or its fallback), possibly empty.
	Output string `json:"output"`

	// Status is ok, fallback, or failed.
	Status Status `json:"status"`

	// DurationMs is the wall-clock time of the invocation.
	DurationMs int64 `json:"duration_ms"`

	// Tokens is the provider-reported token usage, when known.
	Tokens int `json:"tokens,omitempty"`

	// ErrorKind is set when the worker failed, even if a fallback was used.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Error is the worker error message.
	Error string `json:"error,omitempty"`

	// Hint is the registry remediation message for ErrorKind.
	Hint string `json:"hint,omitempty"`
}

// Failed reports whether the worker failed, regardless of fallback.
func (r *ExecutionResult) Failed() bool {
	return r.ErrorKind != ErrorKindNone
}

// AutonomyReport summarizes what the post-build self-heal loop did.
type AutonomyReport struct {
	RanTests    bool `json:"ran_tests"`
	RanSecurity bool `json:"ran_security"`
	Iterations  int  `json:"iterations"`
}

// BuildStatus is the lifecycle status of a build run.
type BuildStatus string

// Build statuses.
const (
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusAborted   BuildStatus = "aborted"
	BuildStatusCanceled  BuildStatus = "canceled"
)

// BuildRecord is the last_build entry persisted in state.
type BuildRecord struct {
	RunID     string      `json:"run_id,omitempty"`
	Status    BuildStatus `json:"status,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	AbortedBy string      `json:"aborted_by,omitempty"`
	ErrorKind ErrorKind   `json:"error_kind,omitempty"`
	Phases    int         `json:"phases,omitempty"`
}

// AgentOutcome is the condensed ExecutionResult kept in agent_results.
type AgentOutcome struct {
	Status        Status    `json:"status"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	Tokens        int       `json:"tokens,omitempty"`
	OutputPreview string    `json:"output_preview,omitempty"`
}

// AgentErrorRecord is an agent_errors entry written for medium-criticality failures.
type AgentErrorRecord struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
	Hint    string    `json:"hint,omitempty"`
	At      time.Time `json:"at"`
}

// TestResults is the test_results state value.
type TestResults struct {
	Output        string     `json:"output,omitempty"`
	Command       string     `json:"command,omitempty"`
	ExitCode      *int       `json:"exit_code,omitempty"`
	Status        string     `json:"status,omitempty"`
	AutonomyRetry bool       `json:"autonomy_retry,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Artifact describes one file written into the workspace by an agent.
type Artifact struct {
	Path      string    `json:"path"`
	Agent     string    `json:"agent,omitempty"`
	Bytes     int       `json:"bytes"`
	WrittenAt time.Time `json:"written_at"`
}
