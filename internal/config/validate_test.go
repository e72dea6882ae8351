package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sqlite backend", func(c *Config) { c.State.Backend = BackendSQLite }, false},
		{"empty backend", func(c *Config) { c.State.Backend = "" }, true},
		{"negative lock timeout", func(c *Config) { c.State.LockTimeout = -1 }, true},
		{"too much parallelism", func(c *Config) { c.Engine.MaxParallel = 65 }, true},
		{"zero tool run timeout", func(c *Config) { c.Engine.ToolRunTimeout = 0 }, true},
		{"zero budget", func(c *Config) { c.Context.Budget = 0 }, true},
		{"zero http timeout", func(c *Config) { c.Tools.HTTPTimeout = 0 }, true},
		{"negative output cap", func(c *Config) { c.Tools.MaxOutputBytes = -1 }, true},
		{"empty security command", func(c *Config) { c.Autonomy.SecurityCommand = nil }, true},
		{"disabled autonomy skips checks", func(c *Config) {
			c.Autonomy.Enabled = false
			c.Autonomy.SecurityCommand = nil
		}, false},
		{"bedrock provider", func(c *Config) { c.Providers.Order = []string{ProviderBedrock} }, false},
		{"empty provider order", func(c *Config) { c.Providers.Order = nil }, false},
		{"zero max tokens", func(c *Config) { c.Providers.MaxTokens = 0 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	require.ErrorIs(t, Validate(nil), errors.ErrInvalidConfig)
}
