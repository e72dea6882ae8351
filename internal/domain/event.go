package domain

import "time"

// EventKind names a progress event emitted during a build.
type EventKind string

// Event kinds.
const (
	EventBuildStarted   EventKind = "build_started"
	EventPhaseStarted   EventKind = "phase_started"
	EventAgentStarted   EventKind = "agent_started"
	EventAgentCompleted EventKind = "agent_completed"
	EventAgentFailed    EventKind = "agent_failed"
	EventAgentFallback  EventKind = "agent_fallback"
	EventBuildAborted   EventKind = "build_aborted"
	EventBuildCompleted EventKind = "build_completed"
	EventAutonomyRetry  EventKind = "autonomy_retry"
)

// Event is a progress notification for one project.
type Event struct {
	ProjectID string         `json:"project_id"`
	Kind      EventKind      `json:"kind"`
	Agent     string         `json:"agent,omitempty"`
	Message   string         `json:"message,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Time      time.Time      `json:"time"`
}
