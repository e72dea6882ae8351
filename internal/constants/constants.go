// Package constants provides centralized constant values used throughout foundry.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used for state persistence.
const (
	// StateFileName is the JSON document holding one project's state.
	StateFileName = "state.json"

	// StateDBFileName is the SQLite file used by the sqlite state backend.
	StateDBFileName = "state.db"

	// AppDBFileName is the per-project SQLite database targeted by the db tools.
	AppDBFileName = "app.db"

	// SchemaFileName is the workspace-relative schema applied by the Database Tool Agent.
	SchemaFileName = "schema.sql"
)

// Directory names and paths used for organizing data.
const (
	// FoundryHome is the hidden directory name where foundry stores its data.
	// This directory is created in the user's home directory.
	FoundryHome = ".foundry"

	// WorkspacesDir is the directory under FoundryHome holding project workspaces.
	WorkspacesDir = "workspaces"

	// OutputsDir is the workspace-relative directory receiving every agent's raw output.
	OutputsDir = "outputs"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Context and state size limits.
const (
	// ContextBudget is the upper bound, in characters, of a built agent context.
	ContextBudget = 6000

	// PromptMaxChars bounds how much of the user prompt enters an agent context.
	PromptMaxChars = 2000

	// MemorySummaryMaxChars bounds the memory_summary state value.
	MemorySummaryMaxChars = 5000

	// RawValueMaxChars bounds the {"raw": ...} fallback stored for map-valued keys.
	RawValueMaxChars = 10000

	// ReportMaxBytes is the ceiling for tool reports captured into state.
	ReportMaxBytes = 10 * 1024

	// ToolLogMaxEntries bounds the tool_log sequence; older entries roll into a summary.
	ToolLogMaxEntries = 100

	// ToolLogPreviewBytes is how much invocation output a tool_log entry keeps.
	ToolLogPreviewBytes = 500

	// ResultPreviewChars is how much of an agent output is kept in agent_results.
	ResultPreviewChars = 500

	// ToolOutputMaxBytes caps stdout/stderr captured from a single command.
	ToolOutputMaxBytes = 50000

	// HTTPBodyMaxBytes caps the body read by the http tool.
	HTTPBodyMaxBytes = 100000

	// BrowsePreviewChars is how much extracted page text the browse tool returns.
	BrowsePreviewChars = 2000
)

// Timeout configurations for various operations.
const (
	// DefaultAgentTimeout applies to agents without an explicit timeout.
	DefaultAgentTimeout = 120 * time.Second

	// DefaultCommandTimeout applies to run invocations without a timeout argument.
	DefaultCommandTimeout = 120 * time.Second

	// DefaultHTTPTimeout applies to http and browse invocations.
	DefaultHTTPTimeout = 15 * time.Second

	// AutonomyTestTimeout bounds the autonomy loop's test re-run.
	AutonomyTestTimeout = 90 * time.Second

	// AutonomySecurityTimeout bounds the autonomy loop's security re-scan.
	AutonomySecurityTimeout = 60 * time.Second

	// ToolRunTimeout bounds post-step tool runs for tool_run agents.
	ToolRunTimeout = 90 * time.Second

	// ProcessWaitDelay is how long a canceled command may take to release its pipes.
	ProcessWaitDelay = 2 * time.Second
)

// Locking configuration.
const (
	// LockTimeout is the maximum time to wait for a project state lock.
	LockTimeout = 5 * time.Second

	// LockRetryInterval is how often a held lock is retried.
	LockRetryInterval = 50 * time.Millisecond
)

// Engine defaults.
const (
	// DefaultMaxParallel bounds concurrent agents within one phase.
	DefaultMaxParallel = 4

	// DefaultMaxTokens is the completion budget requested from LLM providers.
	DefaultMaxTokens = 4096

	// MaxAutonomyIterations is the hard ceiling of autonomy retries per build.
	MaxAutonomyIterations = 2
)
