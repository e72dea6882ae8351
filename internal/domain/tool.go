package domain

import "time"

// ToolKind names an operation of the Tool Executor.
type ToolKind string

// Tool kinds.
const (
	ToolRun     ToolKind = "run"
	ToolRead    ToolKind = "read"
	ToolWrite   ToolKind = "write"
	ToolList    ToolKind = "list"
	ToolHTTP    ToolKind = "http"
	ToolBrowse  ToolKind = "browse"
	ToolDBQuery ToolKind = "db_query"
	ToolDBApply ToolKind = "db_apply"
)

// ToolStatus is the outcome of a tool invocation.
type ToolStatus string

// Tool statuses. A timeout is a status, never a Go error.
const (
	ToolStatusOK      ToolStatus = "ok"
	ToolStatusError   ToolStatus = "error"
	ToolStatusTimeout ToolStatus = "timeout"
)

// ToolErrorKind classifies tool failures.
type ToolErrorKind string

// Tool error kinds.
const (
	ToolErrorNone        ToolErrorKind = ""
	ToolErrorTimeout     ToolErrorKind = "timeout"
	ToolErrorNonZeroExit ToolErrorKind = "non_zero_exit"
	ToolErrorPathEscape  ToolErrorKind = "path_escape"
	ToolErrorNetwork     ToolErrorKind = "network"
	ToolErrorBadArgs     ToolErrorKind = "bad_args"
	ToolErrorNotAllowed  ToolErrorKind = "not_allowed"
	ToolErrorIO          ToolErrorKind = "io"
)

// ToolInvocation is the structured record of one tool call.
type ToolInvocation struct {
	Kind       ToolKind          `json:"kind"`
	Agent      string            `json:"agent,omitempty"`
	Arguments  map[string]string `json:"arguments"`
	Output     string            `json:"output"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  ToolErrorKind     `json:"error_kind,omitempty"`
	ExitCode   *int              `json:"exit_code,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Status     ToolStatus        `json:"status"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}

// OK reports whether the invocation succeeded.
func (t *ToolInvocation) OK() bool {
	return t.Status == ToolStatusOK
}

// Report returns the text a caller should persist as the invocation's report:
// the output, or the error when there is no output.
func (t *ToolInvocation) Report() string {
	if t.Output != "" {
		return t.Output
	}
	return t.Error
}

// ToolLogEntry is the truncated tool_log record of an invocation.
// Entries with Kind "summary" stand in for older entries that rolled over.
type ToolLogEntry struct {
	Kind          string        `json:"kind"`
	Agent         string        `json:"agent,omitempty"`
	Target        string        `json:"target,omitempty"`
	OutputPreview string        `json:"output_preview,omitempty"`
	ExitCode      *int          `json:"exit_code,omitempty"`
	Status        ToolStatus    `json:"status,omitempty"`
	ErrorKind     ToolErrorKind `json:"error_kind,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       time.Time     `json:"ended_at"`
	Count         int           `json:"count,omitempty"`
}

// ToolLogSummaryKind marks a rolled-up tool_log entry.
const ToolLogSummaryKind = "summary"
