package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/foundry/internal/errors"
)

// newViperInstance creates a Viper instance with the FOUNDRY_ environment
// prefix, the "." to "_" key replacer, and every default registered.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FOUNDRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
// environment variables, then the project config, then the global config,
// then built-in defaults. Missing config files are not an error.
//
// For CLI flag overrides, use LoadWithOverrides instead.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if path, ok := globalConfigPathIfExists(); ok {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrap(err, "failed to read global config file")
		}
	}

	if path := ProjectConfigPath(); fileExists(path) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrap(err, "failed to read project config file")
		}
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("state.backend", cfg.State.Backend).
		Int("engine.max_parallel", cfg.Engine.MaxParallel).
		Strs("providers.order", cfg.Providers.Order).
		Bool("autonomy.enabled", cfg.Autonomy.Enabled).
		Msg("configuration loaded")

	return cfg, nil
}

func globalConfigPathIfExists() (string, bool) {
	path, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if !fileExists(path) {
		return "", false
	}
	return path, true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths. Either path
// may be empty to skip that level; environment variables still apply.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults registers DefaultConfig on v. Keys must match the yaml tags
// so that AutomaticEnv can see them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("workspace.root", d.Workspace.Root)

	v.SetDefault("state.backend", d.State.Backend)
	v.SetDefault("state.lock_timeout", d.State.LockTimeout.String())

	v.SetDefault("engine.max_parallel", d.Engine.MaxParallel)
	v.SetDefault("engine.tool_run_timeout", d.Engine.ToolRunTimeout.String())
	v.SetDefault("engine.registry_overrides", "")

	v.SetDefault("context.budget", d.Context.Budget)
	v.SetDefault("context.prompt_max", d.Context.PromptMax)

	v.SetDefault("tools.run_allowlist", []string{})
	v.SetDefault("tools.command_timeout", d.Tools.CommandTimeout.String())
	v.SetDefault("tools.http_timeout", d.Tools.HTTPTimeout.String())
	v.SetDefault("tools.max_output_bytes", d.Tools.MaxOutputBytes)
	v.SetDefault("tools.report_max_bytes", d.Tools.ReportMaxBytes)
	v.SetDefault("tools.tool_log_max", d.Tools.ToolLogMax)
	v.SetDefault("tools.allow_private_networks", false)

	v.SetDefault("autonomy.enabled", d.Autonomy.Enabled)
	v.SetDefault("autonomy.test_timeout", d.Autonomy.TestTimeout.String())
	v.SetDefault("autonomy.security_timeout", d.Autonomy.SecurityTimeout.String())
	v.SetDefault("autonomy.security_command", d.Autonomy.SecurityCommand)

	v.SetDefault("providers.order", d.Providers.Order)
	v.SetDefault("providers.model", "")
	v.SetDefault("providers.gemini_model", "")
	v.SetDefault("providers.max_tokens", d.Providers.MaxTokens)
	v.SetDefault("providers.images", d.Providers.Images)
	v.SetDefault("providers.videos", d.Providers.Videos)
}

// applyOverrides copies the non-zero fields of overrides onto cfg. Only the
// fields exposed as CLI flags are considered.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Workspace.Root != "" {
		cfg.Workspace.Root = overrides.Workspace.Root
	}
	if overrides.State.Backend != "" {
		cfg.State.Backend = overrides.State.Backend
	}
	if overrides.Engine.MaxParallel != 0 {
		cfg.Engine.MaxParallel = overrides.Engine.MaxParallel
	}
	if overrides.Engine.RegistryOverrides != "" {
		cfg.Engine.RegistryOverrides = overrides.Engine.RegistryOverrides
	}
	if len(overrides.Providers.Order) > 0 {
		cfg.Providers.Order = overrides.Providers.Order
	}
	if overrides.Providers.Model != "" {
		cfg.Providers.Model = overrides.Providers.Model
	}
}

// viperDecoderOption decodes duration strings and comma separated lists
// (as they arrive from environment variables).
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}
