package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/errors"
)

func writeYAML(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutConfigFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.State.Backend)
	assert.Equal(t, constants.LockTimeout, cfg.State.LockTimeout)
	assert.Equal(t, constants.DefaultMaxParallel, cfg.Engine.MaxParallel)
	assert.Equal(t, constants.ContextBudget, cfg.Context.Budget)
	assert.Equal(t, constants.DefaultCommandTimeout, cfg.Tools.CommandTimeout)
	assert.Equal(t, []string{ProviderAnthropic, ProviderGemini}, cfg.Providers.Order)
	assert.True(t, cfg.Autonomy.Enabled)
	assert.Empty(t, cfg.Tools.RunAllowlist)
}

func TestLoad_ReadsGlobalAndProjectFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, constants.FoundryHome), 0o750))
	writeYAML(t, filepath.Join(home, constants.FoundryHome), "state:\n  backend: sqlite\nengine:\n  max_parallel: 2\n")

	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, constants.ProjectConfigDir), 0o750))
	writeYAML(t, filepath.Join(project, constants.ProjectConfigDir), "engine:\n  max_parallel: 6\n")
	t.Chdir(project)

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.State.Backend, "global value kept")
	assert.Equal(t, 6, cfg.Engine.MaxParallel, "project overrides global")
}

func TestLoadFromPaths_ProjectOverridesGlobal(t *testing.T) {
	global := writeYAML(t, t.TempDir(), `
engine:
  max_parallel: 8
  tool_run_timeout: 45s
providers:
  model: claude-global
`)
	project := writeYAML(t, t.TempDir(), `
providers:
  model: claude-project
  order: [gemini]
`)

	cfg, err := LoadFromPaths(context.Background(), project, global)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.MaxParallel)
	assert.Equal(t, 45*time.Second, cfg.Engine.ToolRunTimeout)
	assert.Equal(t, "claude-project", cfg.Providers.Model)
	assert.Equal(t, []string{ProviderGemini}, cfg.Providers.Order)
}

func TestLoadFromPaths_MissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromPaths(context.Background(),
		filepath.Join(dir, "missing-project.yaml"), filepath.Join(dir, "missing-global.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Context, cfg.Context)
}

func TestLoadFromPaths_EnvironmentWins(t *testing.T) {
	project := writeYAML(t, t.TempDir(), "state:\n  backend: file\n")
	t.Setenv("FOUNDRY_STATE_BACKEND", "sqlite")
	t.Setenv("FOUNDRY_PROVIDERS_ORDER", "gemini,anthropic")
	t.Setenv("FOUNDRY_TOOLS_HTTP_TIMEOUT", "3s")

	cfg, err := LoadFromPaths(context.Background(), project, "")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.State.Backend)
	assert.Equal(t, []string{ProviderGemini, ProviderAnthropic}, cfg.Providers.Order)
	assert.Equal(t, 3*time.Second, cfg.Tools.HTTPTimeout)
}

func TestLoadFromPaths_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "state:\n  backend: redis\n"},
		{"zero parallelism", "engine:\n  max_parallel: 0\n"},
		{"unknown provider", "providers:\n  order: [openai]\n"},
		{"prompt larger than budget", "context:\n  budget: 100\n  prompt_max: 200\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeYAML(t, t.TempDir(), tc.body)
			_, err := LoadFromPaths(context.Background(), path, "")
			require.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestLoadFromPaths_MalformedYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), "state: [unclosed\n")
	_, err := LoadFromPaths(context.Background(), path, "")
	require.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	applyOverrides(cfg, &Config{
		Workspace: WorkspaceConfig{Root: "/srv/ws"},
		Engine:    EngineConfig{MaxParallel: 1},
		Providers: ProvidersConfig{Model: "m"},
	})

	assert.Equal(t, "/srv/ws", cfg.Workspace.Root)
	assert.Equal(t, 1, cfg.Engine.MaxParallel)
	assert.Equal(t, "m", cfg.Providers.Model)
	assert.Equal(t, BackendFile, cfg.State.Backend, "zero override ignored")
}

func TestLoadWithOverrides_RejectsInvalidOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := LoadWithOverrides(context.Background(), &Config{State: StateConfig{Backend: "etcd"}})
	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}
