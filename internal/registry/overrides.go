package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// OverrideFile is the YAML document accepted by ApplyOverrides:
//
//	agents:
//	  Planner:
//	    timeout_seconds: 240
//	  Image Generation:
//	    criticality: medium
type OverrideFile struct {
	Agents map[string]AgentOverride `yaml:"agents"`
}

// AgentOverride adjusts one descriptor. Zero values leave fields unchanged.
type AgentOverride struct {
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	Criticality    string `yaml:"criticality,omitempty"`
	Prompt         string `yaml:"prompt,omitempty"`
}

// ApplyOverrides loads a YAML override file and applies it to reg.
// Unknown agents and invalid values are configuration errors.
func ApplyOverrides(reg *Registry, path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from user configuration
	if err != nil {
		return fmt.Errorf("%w: read overrides: %w", foundryerrors.ErrInvalidConfig, err)
	}
	var file OverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: parse overrides %s: %w", foundryerrors.ErrInvalidConfig, path, err)
	}
	return Apply(reg, file)
}

// Apply applies parsed overrides in registry order so errors are stable.
func Apply(reg *Registry, file OverrideFile) error {
	for name := range file.Agents {
		if !reg.Has(name) {
			return fmt.Errorf("%w: override for %w: %s", foundryerrors.ErrConfig, foundryerrors.ErrUnknownAgent, name)
		}
	}
	for _, name := range reg.Names() {
		o, ok := file.Agents[name]
		if !ok {
			continue
		}
		if o.TimeoutSeconds < 0 {
			return fmt.Errorf("%w: %s: timeout_seconds must be positive", foundryerrors.ErrInvalidDescriptor, name)
		}
		err := reg.update(name, func(d *Descriptor) {
			if o.TimeoutSeconds > 0 {
				d.Timeout = time.Duration(o.TimeoutSeconds) * time.Second
			}
			if o.Criticality != "" {
				d.Criticality = domain.Criticality(o.Criticality)
			}
			if o.Prompt != "" {
				d.Prompt = o.Prompt
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
