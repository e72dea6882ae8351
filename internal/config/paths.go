package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/errors"
)

// GlobalConfigDir returns the path to the global foundry directory,
// typically ~/.foundry.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.FoundryHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration
// file, .foundry/config.yaml.
func ProjectConfigPath() string {
	return filepath.Join(constants.ProjectConfigDir, constants.GlobalConfigName)
}

// WorkspaceRoot resolves the workspace root: the configured value, or
// ~/.foundry/workspaces when unset.
func (c *Config) WorkspaceRoot() (string, error) {
	if c.Workspace.Root != "" {
		return filepath.Abs(c.Workspace.Root)
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.WorkspacesDir), nil
}

// LogDir returns ~/.foundry/logs.
func LogDir() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}
