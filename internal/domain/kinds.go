// Package domain provides shared domain types for the foundry orchestration core.
//
// IMPORTANT: This package may import internal/errors and internal/constants,
// but MUST NOT import any other internal packages.
package domain

// Status is the terminal status of one agent invocation.
type Status string

// Agent statuses.
const (
	// StatusOK means the worker produced output and its effect was applied.
	StatusOK Status = "ok"

	// StatusFallback means the worker failed and the registered fallback was used.
	StatusFallback Status = "fallback"

	// StatusFailed means the worker failed and no output was committed.
	StatusFailed Status = "failed"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// ErrorKind classifies why an agent invocation failed.
type ErrorKind string

// Agent error kinds.
const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindProviderError ErrorKind = "provider_error"
	ErrorKindEmptyOutput   ErrorKind = "empty_output"
	ErrorKindInternalError ErrorKind = "internal_error"
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// Criticality controls how the engine reacts to an agent failure.
type Criticality string

// Criticality levels, most severe first.
const (
	// CriticalityCritical aborts the build.
	CriticalityCritical Criticality = "critical"

	// CriticalityHigh substitutes the fallback output and continues.
	CriticalityHigh Criticality = "high"

	// CriticalityMedium records the error in state and continues without output.
	CriticalityMedium Criticality = "medium"

	// CriticalityLow logs the error and continues.
	CriticalityLow Criticality = "low"
)

// IsValid checks if the criticality is a recognized level.
func (c Criticality) IsValid() bool {
	switch c {
	case CriticalityCritical, CriticalityHigh, CriticalityMedium, CriticalityLow:
		return true
	}
	return false
}

// String returns the string representation of the Criticality.
func (c Criticality) String() string {
	return string(c)
}
