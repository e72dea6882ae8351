package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/tool"
)

// ToolEnv is what a tool agent works with. Outputs holds the ok and
// fallback outputs of every agent from earlier phases.
type ToolEnv struct {
	ProjectID string
	Agent     string
	Prompt    string
	Outputs   map[string]string
	Tools     *tool.Executor

	// CommandTimeout bounds any command the agent runs.
	CommandTimeout time.Duration
}

// ToolResult is a tool agent's report. Written lists workspace files the
// agent created; the engine records them as artifacts.
type ToolResult struct {
	Output  string
	Written []string
}

// ToolFunc is the worker of a KindTool agent. Tool failures belong in the
// Output text; a returned error is an internal failure of the agent.
type ToolFunc func(ctx context.Context, env ToolEnv) (ToolResult, error)

// Tool agent names.
const (
	FileToolAgent       = "File Tool Agent"
	DatabaseToolAgent   = "Database Tool Agent"
	BrowserToolAgent    = "Browser Tool Agent"
	APIToolAgent        = "API Tool Agent"
	DeploymentToolAgent = "Deployment Tool Agent"
)

func builtinToolFuncs() map[string]ToolFunc {
	return map[string]ToolFunc{
		FileToolAgent:       fileTool,
		DatabaseToolAgent:   databaseTool,
		BrowserToolAgent:    browserTool,
		APIToolAgent:        apiTool,
		DeploymentToolAgent: deploymentTool,
	}
}

// fileTargets is the order in which generated sources are written.
//
//nolint:gochecknoglobals // Static write plan
var fileTargets = []struct {
	agent string
	path  string
}{
	{"Frontend Generation", "src/App.jsx"},
	{"Backend Generation", "server.py"},
	{"Database Agent", "schema.sql"},
	{"Test Generation", "tests/test_basic.py"},
}

// deployCommand is run by the Deployment Tool Agent.
//
//nolint:gochecknoglobals // Static argv
var deployCommand = []string{"npx", "vercel", "deploy", "--yes"}

func fileTool(ctx context.Context, env ToolEnv) (ToolResult, error) {
	var written, failed []string
	for _, t := range fileTargets {
		code := behavior.StripFences(env.Outputs[t.agent])
		if code == "" {
			continue
		}
		inv := env.Tools.Write(ctx, env.ProjectID, env.Agent, t.path, code)
		if !inv.OK() {
			failed = append(failed, fmt.Sprintf("%s: %s", t.path, inv.Error))
			continue
		}
		written = append(written, t.path)
	}

	out := fmt.Sprintf("Real File Tool Agent: wrote %d file(s): %s.", len(written), strings.Join(written, ", "))
	if len(failed) > 0 {
		out += " Errors: " + strings.Join(failed, "; ")
	}
	return ToolResult{Output: out, Written: written}, nil
}

func databaseTool(ctx context.Context, env ToolEnv) (ToolResult, error) {
	schema := behavior.StripFences(env.Outputs["Database Agent"])
	if schema == "" {
		return ToolResult{Output: "Real Database Tool Agent: no schema from Database Agent; skipped."}, nil
	}
	inv := env.Tools.Invoke(ctx, env.ProjectID, tool.Request{
		Kind:  domain.ToolDBApply,
		Agent: env.Agent,
		Args:  map[string]string{"sql": schema, "path": constants.AppDBFileName},
	})
	if !inv.OK() {
		return ToolResult{Output: fmt.Sprintf("Real Database Tool Agent: schema apply to %s failed: %s",
			constants.AppDBFileName, inv.Error)}, nil
	}
	return ToolResult{
		Output:  fmt.Sprintf("Real Database Tool Agent: applied schema to SQLite at %s.", constants.AppDBFileName),
		Written: []string{constants.AppDBFileName},
	}, nil
}

func browserTool(ctx context.Context, env ToolEnv) (ToolResult, error) {
	source := env.Outputs["Scraping Agent"]
	if strings.TrimSpace(source) == "" {
		source = env.Prompt
	}
	url := behavior.FirstURL(source)
	if url == "" {
		return ToolResult{Output: "Real Browser Tool Agent: no URL in context; skipped (real agent ran, no input)."}, nil
	}
	inv := env.Tools.Invoke(ctx, env.ProjectID, tool.Request{
		Kind:  domain.ToolBrowse,
		Agent: env.Agent,
		Args:  map[string]string{"url": url},
	})
	if !inv.OK() {
		return ToolResult{Output: "Real Browser Tool Agent: " + inv.Error}, nil
	}
	return ToolResult{Output: fmt.Sprintf("Real Browser Tool Agent: navigated to %s; content length %d.",
		url, utf8.RuneCountInString(inv.Output))}, nil
}

func apiTool(ctx context.Context, env ToolEnv) (ToolResult, error) {
	url := behavior.FirstURL(behavior.StripFences(env.Outputs["API Integration"]))
	if url == "" {
		return ToolResult{Output: "Real API Tool Agent: no API URL in context; skipped (real agent ran, no input)."}, nil
	}
	inv := env.Tools.Invoke(ctx, env.ProjectID, tool.Request{
		Kind:  domain.ToolHTTP,
		Agent: env.Agent,
		Args:  map[string]string{"url": url, "method": "GET"},
	})
	if inv.StatusCode == 0 {
		return ToolResult{Output: "Real API Tool Agent: " + inv.Error}, nil
	}
	return ToolResult{Output: fmt.Sprintf("Real API Tool Agent: GET %s -> status %d.", url, inv.StatusCode)}, nil
}

func deploymentTool(ctx context.Context, env ToolEnv) (ToolResult, error) {
	if !env.Tools.Exists(env.ProjectID, "server.py") && !env.Tools.Exists(env.ProjectID, "src") {
		return ToolResult{Output: "Real Deployment Tool Agent: no files in workspace (run File Tool Agent first); skipped."}, nil
	}
	inv := env.Tools.Run(ctx, env.ProjectID, env.Agent, deployCommand, env.CommandTimeout, "")
	if !inv.OK() {
		return ToolResult{Output: "Real Deployment Tool Agent: deploy failed: " + headRunes(inv.Report(), 300)}, nil
	}
	url := behavior.FirstURL(inv.Output)
	if url == "" {
		url = "N/A"
	}
	return ToolResult{Output: "Real Deployment Tool Agent: deployed. URL: " + url + "."}, nil
}

func headRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
