// Package catalog builds the built-in agent registry: the full agent graph
// with prompts, criticality, timeouts, fallbacks, and remediation hints.
package catalog

import (
	"fmt"
	"time"

	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/registry"
)

//nolint:gochecknoglobals // Static policy tables
var (
	criticality = map[string]domain.Criticality{
		"Planner":                domain.CriticalityCritical,
		"Stack Selector":         domain.CriticalityCritical,
		"Requirements Clarifier": domain.CriticalityHigh,
		"Frontend Generation":    domain.CriticalityHigh,
		"Backend Generation":     domain.CriticalityHigh,
		"Database Agent":         domain.CriticalityHigh,
		"API Integration":        domain.CriticalityMedium,
		"Test Generation":        domain.CriticalityMedium,
		"Security Checker":       domain.CriticalityMedium,
		"Test Executor":          domain.CriticalityMedium,
		"Deployment Agent":       domain.CriticalityMedium,
		"Image Generation":       domain.CriticalityLow,
		"UX Auditor":             domain.CriticalityLow,
		"Performance Analyzer":   domain.CriticalityLow,
		"Error Recovery":         domain.CriticalityLow,
		"Memory Agent":           domain.CriticalityLow,
		"PDF Export":             domain.CriticalityLow,
		"Excel Export":           domain.CriticalityLow,
		"Scraping Agent":         domain.CriticalityLow,
		"Automation Agent":       domain.CriticalityLow,
	}

	timeoutSeconds = map[string]int{
		"Planner":                120,
		"Requirements Clarifier": 90,
		"Stack Selector":         60,
		"Frontend Generation":    180,
		"Backend Generation":     180,
		"Database Agent":         90,
		"API Integration":        90,
		"Test Generation":        120,
		"Image Generation":       60,
		"Security Checker":       90,
		"Test Executor":          60,
		"UX Auditor":             60,
		"Performance Analyzer":   60,
		"Deployment Agent":       90,
		"Error Recovery":         60,
		"Memory Agent":           45,
		"PDF Export":             45,
		"Excel Export":           45,
		"Scraping Agent":         90,
		"Automation Agent":       60,
	}

	fallbacks = map[string]string{
		"Frontend Generation":    "// Generated frontend (failed, using default React template)\nconst App = () => <div>Generated app placeholder</div>;\nexport default App;",
		"Backend Generation":     "# Generated backend (failed, using default)\nfrom fastapi import FastAPI\napp = FastAPI()\n\n@app.get('/')\ndef root():\n    return {'message': 'Hello'}\n",
		"Database Agent":         "-- Schema placeholder\n-- Tables: users, sessions",
		"Test Generation":        "# Test generation failed, skipped",
		"Security Checker":       "Security check skipped.",
		"Performance Analyzer":   "Performance analysis skipped.",
		"Planner":                "1. Implement core feature\n2. Add tests\n3. Deploy",
		"Stack Selector":         `{"frontend": "React", "backend": "FastAPI", "database": "SQLite"}`,
		"Requirements Clarifier": "Clarifications skipped.",
	}

	hints = map[string]map[domain.ErrorKind]string{
		"Planner": {
			domain.ErrorKindTimeout:     "Planning is taking longer than expected. Try a shorter description.",
			domain.ErrorKindEmptyOutput: "Planning failed. Make sure your app description is clear and specific.",
		},
		"Stack Selector": {
			domain.ErrorKindTimeout:     "Tech stack selection timed out. Try again.",
			domain.ErrorKindEmptyOutput: "Could not select stack. Refine your requirements.",
		},
		"Frontend Generation": {
			domain.ErrorKindTimeout:     "Frontend generation takes time for complex apps.",
			domain.ErrorKindEmptyOutput: "Frontend generation failed. Using default template.",
		},
		"Backend Generation": {
			domain.ErrorKindTimeout:     "Backend generation is taking longer than usual.",
			domain.ErrorKindEmptyOutput: "Backend generation failed. Using default template.",
		},
		"Security Checker": {
			domain.ErrorKindTimeout:     "Security hardening takes time for large apps.",
			domain.ErrorKindEmptyOutput: "Security check found no improvements needed.",
		},
		"Performance Analyzer": {
			domain.ErrorKindTimeout:     "Performance analysis skipped (timeout).",
			domain.ErrorKindEmptyOutput: "No optimization suggestions.",
		},
	}
)

// Criticality returns the catalog criticality for an agent (medium by default).
func Criticality(name string) domain.Criticality {
	if c, ok := criticality[name]; ok {
		return c
	}
	return domain.CriticalityMedium
}

// Timeout returns the catalog timeout for an agent.
func Timeout(name string) time.Duration {
	if s, ok := timeoutSeconds[name]; ok {
		return time.Duration(s) * time.Second
	}
	return constants.DefaultAgentTimeout
}

// Fallback returns the deterministic substitute output for an agent.
func Fallback(name string) string {
	if f, ok := fallbacks[name]; ok {
		return f
	}
	return fmt.Sprintf("// %s generated no output (failed).", name)
}

// New builds the built-in registry. Effects come from the canonical
// real-behavior wiring.
func New() (*registry.Registry, error) {
	sets := behavior.Default()
	reg := registry.New()
	for _, e := range entries {
		effect, _ := sets.Effect(e.name)
		if effect.Kind == registry.EffectToolRun {
			effect.Command = behavior.ToolCommand(e.name)
		}
		name := e.name
		d := &registry.Descriptor{
			Name:        name,
			DependsOn:   e.deps,
			Criticality: Criticality(name),
			Timeout:     Timeout(name),
			Kind:        kindFor(effect),
			Prompt:      e.prompt,
			Effect:      effect,
			Fallback:    func() string { return Fallback(name) },
			Hints:       hints[name],
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func kindFor(e registry.Effect) registry.Kind {
	switch e.Kind {
	case registry.EffectRealTool:
		return registry.KindTool
	case registry.EffectToolRun:
		return registry.KindComposite
	default:
		return registry.KindLLM
	}
}
