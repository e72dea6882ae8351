package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Order matters: the first errors.Is match wins, so specific sentinels
// come before their umbrella (ErrCycleDetected before ErrConfig).
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Build control
	// ===================
	{
		err: ErrBuildAborted,
		info: ErrorInfo{
			Message: "The build stopped because a critical agent failed.",
			Action:  "Read the remediation hint, adjust the prompt, and start the build again.",
		},
	},
	{
		err: ErrBuildInProgress,
		info: ErrorInfo{
			Message: "Another build is already running for this project.",
			Action:  "Wait for the running build to finish before starting a new one.",
		},
	},

	// ===================
	// Registry
	// ===================
	{
		err: ErrCycleDetected,
		info: ErrorInfo{
			Message: "The agent graph contains a dependency cycle.",
			Action:  "Remove one of the dependencies named in the error.",
		},
	},
	{
		err: ErrUnknownDependency,
		info: ErrorInfo{
			Message: "An agent depends on an agent that is not registered.",
			Action:  "Register the missing agent or remove the dependency.",
		},
	},
	{
		err: ErrMissingEffect,
		info: ErrorInfo{
			Message: "An agent is not wired to a state key, artifact, or tool run.",
			Action:  "Give every agent an effect before starting builds.",
		},
	},
	{
		err: ErrConfig,
		info: ErrorInfo{
			Message: "The agent registry failed its startup checks.",
			Action:  "Run 'foundry check' to see every violation.",
		},
	},
	{
		err: ErrInvalidConfig,
		info: ErrorInfo{
			Message: "The configuration contains an invalid value.",
			Action:  "Fix the value in .foundry/config.yaml or the FOUNDRY_* environment.",
		},
	},

	// ===================
	// State
	// ===================
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Timed out waiting for the project state lock.",
			Action:  "Check for another foundry process working on the same project.",
		},
	},
	{
		err: ErrState,
		info: ErrorInfo{
			Message: "The project state could not be saved.",
			Action:  "Check disk space and permissions on the workspace directory.",
		},
	},

	// ===================
	// Tools
	// ===================
	{
		err: ErrPathEscape,
		info: ErrorInfo{
			Message: "A file path resolved outside the project workspace.",
		},
	},
	{
		err: ErrCommandNotAllowed,
		info: ErrorInfo{
			Message: "The command is not on the run allowlist.",
			Action:  "Add its prefix to tools.run_allowlist if it is safe to run.",
		},
	},
	{
		err: ErrToolTimeout,
		info: ErrorInfo{
			Message: "A tool invocation exceeded its timeout.",
		},
	},

	// ===================
	// Providers
	// ===================
	{
		err: ErrProviderUnavailable,
		info: ErrorInfo{
			Message: "No credentials are configured for the requested provider.",
			Action:  "Set ANTHROPIC_API_KEY or GEMINI_API_KEY in the environment or .env file.",
		},
	},
	{
		err: ErrAllProvidersFailed,
		info: ErrorInfo{
			Message: "Every configured LLM provider failed.",
			Action:  "Check provider status and credentials, then retry.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// Direct sentinels hit the map; wrapped errors fall back to errors.Is traversal.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action. The action is empty when there is nothing the user can do.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
