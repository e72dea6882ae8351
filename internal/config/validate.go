package config

import (
	"slices"

	"github.com/mrz1836/foundry/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - state.backend must be file or sqlite
//   - engine.max_parallel must be between 1 and 64
//   - context budget and prompt cap must be positive, prompt cap within budget
//   - every timeout must be positive
//   - providers.order may only name known providers
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.Wrap(errors.ErrInvalidConfig, "config is nil")
	}
	if err := validateState(&cfg.State); err != nil {
		return err
	}
	if err := validateEngine(&cfg.Engine, &cfg.Context); err != nil {
		return err
	}
	if err := validateTools(&cfg.Tools); err != nil {
		return err
	}
	if err := validateAutonomy(&cfg.Autonomy); err != nil {
		return err
	}
	return validateProviders(&cfg.Providers)
}

func validateState(cfg *StateConfig) error {
	if cfg.Backend != BackendFile && cfg.Backend != BackendSQLite {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"state.backend must be %q or %q, got %q", BackendFile, BackendSQLite, cfg.Backend)
	}
	if cfg.LockTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"state.lock_timeout must be positive, got %s", cfg.LockTimeout)
	}
	return nil
}

func validateEngine(cfg *EngineConfig, ctx *ContextConfig) error {
	if cfg.MaxParallel < 1 || cfg.MaxParallel > 64 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"engine.max_parallel must be between 1 and 64, got %d", cfg.MaxParallel)
	}
	if cfg.ToolRunTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"engine.tool_run_timeout must be positive, got %s", cfg.ToolRunTimeout)
	}
	if ctx.Budget <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"context.budget must be positive, got %d", ctx.Budget)
	}
	if ctx.PromptMax <= 0 || ctx.PromptMax > ctx.Budget {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"context.prompt_max must be between 1 and context.budget (%d), got %d", ctx.Budget, ctx.PromptMax)
	}
	return nil
}

func validateTools(cfg *ToolsConfig) error {
	if cfg.CommandTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"tools.command_timeout must be positive, got %s", cfg.CommandTimeout)
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"tools.http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.MaxOutputBytes < 0 || cfg.ReportMaxBytes < 0 || cfg.ToolLogMax < 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "tools size limits cannot be negative")
	}
	return nil
}

func validateAutonomy(cfg *AutonomyConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.TestTimeout <= 0 || cfg.SecurityTimeout <= 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "autonomy timeouts must be positive")
	}
	if len(cfg.SecurityCommand) == 0 {
		return errors.Wrap(errors.ErrInvalidConfig, "autonomy.security_command must not be empty")
	}
	return nil
}

func validateProviders(cfg *ProvidersConfig) error {
	known := []string{ProviderAnthropic, ProviderBedrock, ProviderGemini}
	for _, p := range cfg.Order {
		if !slices.Contains(known, p) {
			return errors.Wrapf(errors.ErrInvalidConfig,
				"providers.order has unknown provider %q (want one of %v)", p, known)
		}
	}
	if cfg.MaxTokens <= 0 {
		return errors.Wrapf(errors.ErrInvalidConfig,
			"providers.max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	return nil
}
