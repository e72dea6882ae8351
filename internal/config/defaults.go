package config

import (
	"github.com/mrz1836/foundry/internal/constants"
)

// Backend names accepted by state.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Provider names accepted by providers.order.
const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderGemini    = "gemini"
)

// DefaultConfig returns a new Config with the built-in defaults. It is the
// base layer under config files, environment variables, and flags.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			// Root: empty resolves to ~/.foundry/workspaces.
			Root: "",
		},
		State: StateConfig{
			Backend:     BackendFile,
			LockTimeout: constants.LockTimeout,
		},
		Engine: EngineConfig{
			MaxParallel:    constants.DefaultMaxParallel,
			ToolRunTimeout: constants.ToolRunTimeout,
		},
		Context: ContextConfig{
			Budget:    constants.ContextBudget,
			PromptMax: constants.PromptMaxChars,
		},
		Tools: ToolsConfig{
			// RunAllowlist: nil keeps the executor's built-in allowlist.
			CommandTimeout: constants.DefaultCommandTimeout,
			HTTPTimeout:    constants.DefaultHTTPTimeout,
			MaxOutputBytes: constants.ToolOutputMaxBytes,
			ReportMaxBytes: constants.ReportMaxBytes,
			ToolLogMax:     constants.ToolLogMaxEntries,
		},
		Autonomy: AutonomyConfig{
			Enabled:         true,
			TestTimeout:     constants.AutonomyTestTimeout,
			SecurityTimeout: constants.AutonomySecurityTimeout,
			SecurityCommand: []string{"python", "-m", "bandit", "-r", ".", "-f", "txt", "-ll"},
		},
		Providers: ProvidersConfig{
			Order:     []string{ProviderAnthropic, ProviderGemini},
			MaxTokens: constants.DefaultMaxTokens,
			Images:    true,
			Videos:    true,
		},
	}
}
