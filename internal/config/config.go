// Package config provides configuration management for foundry with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (FOUNDRY_* prefix)
//  3. Project config (.foundry/config.yaml)
//  4. Global config (~/.foundry/config.yaml)
//  5. Built-in defaults
//
// Provider credentials are not configuration: they are read once from the
// environment (and an optional .env file) into Credentials.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for foundry.
type Config struct {
	// Workspace locates the per-project workspace directories.
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`

	// State selects the state store backend.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Engine bounds build execution.
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`

	// Context bounds the prompt context handed to each agent.
	Context ContextConfig `yaml:"context" mapstructure:"context"`

	// Tools holds Tool Executor limits and policy.
	Tools ToolsConfig `yaml:"tools" mapstructure:"tools"`

	// Autonomy controls the post-build self-heal pass.
	Autonomy AutonomyConfig `yaml:"autonomy" mapstructure:"autonomy"`

	// Providers selects and tunes the LLM and media providers.
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
}

// WorkspaceConfig locates project workspaces.
type WorkspaceConfig struct {
	// Root is the directory holding one subdirectory per project.
	// Default: "" (resolved to ~/.foundry/workspaces)
	Root string `yaml:"root" mapstructure:"root"`
}

// StateConfig selects the state store.
type StateConfig struct {
	// Backend is "file" (state.json per project) or "sqlite" (one state.db).
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// LockTimeout is how long a writer waits for the per-project lock.
	// Default: 5s
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`
}

// EngineConfig bounds build execution.
type EngineConfig struct {
	// MaxParallel bounds concurrent agents within one phase.
	// Default: 4
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel"`

	// ToolRunTimeout bounds post-step commands of tool-running agents.
	// Default: 90s
	ToolRunTimeout time.Duration `yaml:"tool_run_timeout" mapstructure:"tool_run_timeout"`

	// RegistryOverrides is an optional YAML file adjusting agent timeouts,
	// criticality, and prompts.
	RegistryOverrides string `yaml:"registry_overrides" mapstructure:"registry_overrides"`
}

// ContextConfig bounds agent context assembly.
type ContextConfig struct {
	// Budget is the maximum context size in characters.
	// Default: 6000
	Budget int `yaml:"budget" mapstructure:"budget"`

	// PromptMax caps the user prompt inside the context.
	// Default: 2000
	PromptMax int `yaml:"prompt_max" mapstructure:"prompt_max"`
}

// ToolsConfig holds Tool Executor limits.
type ToolsConfig struct {
	// RunAllowlist holds the command prefixes agents may run. Empty keeps
	// the built-in allowlist.
	RunAllowlist []string `yaml:"run_allowlist" mapstructure:"run_allowlist"`

	// CommandTimeout applies to run invocations without an explicit timeout.
	// Default: 120s
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`

	// HTTPTimeout applies to http and browse invocations.
	// Default: 15s
	HTTPTimeout time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`

	// MaxOutputBytes caps captured command output.
	MaxOutputBytes int `yaml:"max_output_bytes" mapstructure:"max_output_bytes"`

	// ReportMaxBytes caps reports captured into state.
	ReportMaxBytes int `yaml:"report_max_bytes" mapstructure:"report_max_bytes"`

	// ToolLogMax bounds tool_log before older entries roll up.
	ToolLogMax int `yaml:"tool_log_max" mapstructure:"tool_log_max"`

	// AllowPrivateNetworks lets http and browse reach private addresses.
	// Default: false
	AllowPrivateNetworks bool `yaml:"allow_private_networks" mapstructure:"allow_private_networks"`
}

// AutonomyConfig controls the self-heal pass.
type AutonomyConfig struct {
	// Enabled turns the pass on.
	// Default: true
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// TestTimeout bounds the test re-run.
	// Default: 90s
	TestTimeout time.Duration `yaml:"test_timeout" mapstructure:"test_timeout"`

	// SecurityTimeout bounds the security re-scan.
	// Default: 60s
	SecurityTimeout time.Duration `yaml:"security_timeout" mapstructure:"security_timeout"`

	// SecurityCommand is the scanner argv. It must pass the run allowlist.
	SecurityCommand []string `yaml:"security_command" mapstructure:"security_command"`
}

// ProvidersConfig selects LLM and media providers.
type ProvidersConfig struct {
	// Order lists LLM providers to try: anthropic, bedrock, gemini.
	// Providers without credentials are skipped.
	// Default: ["anthropic", "gemini"]
	Order []string `yaml:"order" mapstructure:"order"`

	// Model is the Anthropic model id. Empty uses the worker default.
	Model string `yaml:"model" mapstructure:"model"`

	// GeminiModel is the Gemini model id. Empty uses the worker default.
	GeminiModel string `yaml:"gemini_model" mapstructure:"gemini_model"`

	// MaxTokens is the completion budget per call.
	// Default: 4096
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Images enables the image provider when its key is present.
	// Default: true
	Images bool `yaml:"images" mapstructure:"images"`

	// Videos enables the video provider when its key is present.
	// Default: true
	Videos bool `yaml:"videos" mapstructure:"videos"`
}
