package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/autonomy"
	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/catalog"
	"github.com/mrz1836/foundry/internal/config"
	"github.com/mrz1836/foundry/internal/contextbuilder"
	"github.com/mrz1836/foundry/internal/engine"
	"github.com/mrz1836/foundry/internal/events"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/state"
	"github.com/mrz1836/foundry/internal/tool"
	"github.com/mrz1836/foundry/internal/worker"
	"github.com/mrz1836/foundry/internal/workspace"
)

// Services is everything a command needs, wired from configuration.
type Services struct {
	Config    *config.Config
	Layout    *workspace.Layout
	Store     state.Store
	Tools     *tool.Executor
	Registry  *registry.Registry
	Providers *worker.Providers
	Hub       *events.Hub
	Engine    *engine.Engine

	closers []func() error
}

// Close releases the store and provider clients.
func (s *Services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// loadConfig loads .env files, then configuration with flag overrides.
func loadConfig(ctx context.Context, flags *GlobalFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load .env file")
	}
	return config.LoadWithOverrides(ctx, flags.overrides())
}

// loadRegistry builds the catalog registry and applies the overrides file.
func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg, err := catalog.New()
	if err != nil {
		return nil, err
	}
	if cfg.Engine.RegistryOverrides != "" {
		if err := registry.ApplyOverrides(reg, cfg.Engine.RegistryOverrides); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// NewServices wires state, tools, providers, autonomy, and the engine.
func NewServices(ctx context.Context, cfg *config.Config, creds config.Credentials, logger zerolog.Logger) (*Services, error) {
	root, err := cfg.WorkspaceRoot()
	if err != nil {
		return nil, err
	}
	layout, err := workspace.NewLayout(root)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare workspace root: %w", err)
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	s := &Services{Config: cfg, Layout: layout, Registry: reg, Hub: events.NewHub()}

	store, closeStore, err := state.Open(ctx, cfg.State.Backend, layout, cfg.State.LockTimeout, logger)
	if err != nil {
		return nil, err
	}
	s.Store = store
	s.closers = append(s.closers, closeStore)

	allowlist := cfg.Tools.RunAllowlist
	if len(allowlist) == 0 {
		allowlist = nil
	}
	s.Tools = tool.NewExecutor(layout, store, tool.Config{
		RunAllowlist:         allowlist,
		CommandTimeout:       cfg.Tools.CommandTimeout,
		HTTPTimeout:          cfg.Tools.HTTPTimeout,
		MaxOutputBytes:       cfg.Tools.MaxOutputBytes,
		ReportMaxBytes:       cfg.Tools.ReportMaxBytes,
		ToolLogMax:           cfg.Tools.ToolLogMax,
		AllowPrivateNetworks: cfg.Tools.AllowPrivateNetworks,
	}, logger.With().Str("component", "tool").Logger())

	s.Providers = worker.Build(ctx, worker.Settings{
		Order:        cfg.Providers.Order,
		Model:        cfg.Providers.Model,
		GeminiModel:  cfg.Providers.GeminiModel,
		AWSRegion:    creds.AWSRegion,
		AnthropicKey: creds.AnthropicKey,
		GeminiKey:    creds.GeminiKey,
		TogetherKey:  creds.TogetherKey,
		PexelsKey:    creds.PexelsKey,
		Images:       cfg.Providers.Images,
		Videos:       cfg.Providers.Videos,
	}, logger.With().Str("component", "worker").Logger())
	s.closers = append(s.closers, s.Providers.Close)

	opts := []engine.Option{
		engine.WithSets(behavior.Default()),
		engine.WithMedia(s.Providers.Images, s.Providers.Videos),
		engine.WithHub(s.Hub),
	}
	if cfg.Autonomy.Enabled {
		opts = append(opts, engine.WithAutonomy(autonomy.New(s.Tools, store, autonomy.Config{
			Enabled:         true,
			TestTimeout:     cfg.Autonomy.TestTimeout,
			SecurityTimeout: cfg.Autonomy.SecurityTimeout,
			SecurityCommand: cfg.Autonomy.SecurityCommand,
			ReportMaxBytes:  cfg.Tools.ReportMaxBytes,
		}, logger.With().Str("component", "autonomy").Logger())))
	}

	eng, err := engine.New(reg, store, s.Tools, s.Providers.LLM, engine.Config{
		MaxParallel:    cfg.Engine.MaxParallel,
		MaxTokens:      cfg.Providers.MaxTokens,
		ToolRunTimeout: cfg.Engine.ToolRunTimeout,
		Context: contextbuilder.Config{
			Budget:    cfg.Context.Budget,
			PromptMax: cfg.Context.PromptMax,
		},
	}, logger.With().Str("component", "engine").Logger(), opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Engine = eng
	return s, nil
}

// setupServices is the common command prologue: config, credentials,
// services.
func setupServices(ctx context.Context, flags *GlobalFlags) (*Services, error) {
	logger := GetLogger()
	ctx = logger.WithContext(ctx)
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	return NewServices(ctx, cfg, config.LoadCredentials(), logger)
}
