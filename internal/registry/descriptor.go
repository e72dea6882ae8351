// Package registry holds the agent descriptors that drive a build: who
// depends on whom, how failures are handled, and what observable effect
// each agent must leave behind.
package registry

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Kind selects how the engine invokes an agent's worker.
type Kind string

// Agent kinds.
const (
	// KindLLM agents call a text completion provider.
	KindLLM Kind = "llm"

	// KindTool agents run a fixed tool sequence and never call a provider.
	KindTool Kind = "tool"

	// KindComposite agents call a provider and then run a tool post-step.
	KindComposite Kind = "composite"
)

// EffectKind names the observable result an agent must produce.
type EffectKind string

// Effect kinds.
const (
	EffectNone          EffectKind = ""
	EffectStateWrite    EffectKind = "state_write"
	EffectArtifactWrite EffectKind = "artifact_write"
	EffectToolRun       EffectKind = "tool_run"
	EffectRealTool      EffectKind = "real_tool"
	EffectSpecial       EffectKind = "special"
)

// Effect describes where an agent's output lands.
type Effect struct {
	Kind EffectKind

	// Key is the state key for state_write and tool_run effects.
	Key string

	// Path is the workspace-relative file for artifact_write effects.
	Path string

	// Command is the allowlisted argv a tool_run effect executes. Empty
	// means the engine's built-in post-step for the agent decides.
	Command []string
}

// String renders the effect for listings, e.g. "state_write(plan)".
func (e Effect) String() string {
	switch e.Kind {
	case EffectStateWrite, EffectToolRun:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Key)
	case EffectArtifactWrite:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Path)
	case EffectNone:
		return "none"
	default:
		return string(e.Kind)
	}
}

// StateWrite returns a state_write effect for key.
func StateWrite(key string) Effect { return Effect{Kind: EffectStateWrite, Key: key} }

// ArtifactWrite returns an artifact_write effect for a workspace path.
func ArtifactWrite(path string) Effect { return Effect{Kind: EffectArtifactWrite, Path: path} }

// ToolRun returns a tool_run effect capturing into key.
func ToolRun(key string, argv ...string) Effect {
	return Effect{Kind: EffectToolRun, Key: key, Command: argv}
}

// RealTool returns a real_tool effect.
func RealTool() Effect { return Effect{Kind: EffectRealTool} }

// Special returns a special (delegated) effect.
func Special() Effect { return Effect{Kind: EffectSpecial} }

// Descriptor is one registry entry.
type Descriptor struct {
	Name        string
	DependsOn   []string
	Criticality domain.Criticality
	Timeout     time.Duration
	Kind        Kind

	// Prompt is the system prompt handed to the completion provider.
	Prompt string

	Effect Effect

	// Fallback produces the substitute output used when a high-criticality
	// agent fails. Nil means the agent has no fallback.
	Fallback func() string

	// Hints maps an error kind to a remediation message.
	Hints map[domain.ErrorKind]string
}

// Validate checks the fields that do not depend on other agents.
func (d *Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is empty", foundryerrors.ErrInvalidDescriptor)
	}
	if !d.Criticality.IsValid() {
		return fmt.Errorf("%w: %s: criticality %q", foundryerrors.ErrInvalidDescriptor, d.Name, d.Criticality)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("%w: %s: timeout must be positive", foundryerrors.ErrInvalidDescriptor, d.Name)
	}
	switch d.Kind {
	case KindLLM, KindTool, KindComposite:
	default:
		return fmt.Errorf("%w: %s: kind %q", foundryerrors.ErrInvalidDescriptor, d.Name, d.Kind)
	}
	if slices.Contains(d.DependsOn, d.Name) {
		return &foundryerrors.CycleError{Nodes: []string{d.Name, d.Name}}
	}
	return nil
}

// HasFallback reports whether a fallback producer is registered.
func (d *Descriptor) HasFallback() bool {
	return d.Fallback != nil
}

// Hint returns the remediation message for kind. It falls back to the
// empty_output message and then to a generic one.
func (d *Descriptor) Hint(kind domain.ErrorKind) string {
	if msg := d.Hints[kind]; msg != "" {
		return msg
	}
	if msg := d.Hints[domain.ErrorKindEmptyOutput]; msg != "" {
		return msg
	}
	return GenericHint(d.Name)
}

// GenericHint is the message used for agents without a specific hint.
func GenericHint(name string) string {
	return fmt.Sprintf("Agent %s failed.", name)
}

// Clone returns a copy that shares nothing mutable with d.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.DependsOn = slices.Clone(d.DependsOn)
	c.Effect.Command = slices.Clone(d.Effect.Command)
	c.Hints = maps.Clone(d.Hints)
	return &c
}
