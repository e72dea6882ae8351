// Package mcpserver exposes the engine as an MCP server over stdio with
// three tools: start_build, get_state, and plan_build.
//
// Tool failures are returned as tool results with IsError set, never as
// protocol errors, so the calling model sees the remediation text.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/dag"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/engine"
	"github.com/mrz1836/foundry/internal/errors"
)

// Service is the engine surface the tools call.
type Service interface {
	StartBuild(ctx context.Context, req engine.BuildRequest) (*engine.BuildReport, error)
	GetState(ctx context.Context, projectID string) (*domain.ProjectState, error)
	Plan() *dag.Plan
}

var _ Service = (*engine.Engine)(nil)

// New creates the MCP server with every tool registered.
func New(svc Service, version string, logger zerolog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"foundry",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Foundry builds applications from a prompt by running a graph of agents. "+
			"Call plan_build to see the phases, start_build to run a build for a project, and get_state "+
			"to read the persisted project state."),
	)

	build := &BuildTool{svc: svc, logger: logger}
	s.AddTool(build.Definition(), build.Handle)

	st := &StateTool{svc: svc}
	s.AddTool(st.Definition(), st.Handle)

	plan := &PlanTool{svc: svc}
	s.AddTool(plan.Definition(), plan.Handle)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// BuildTool handles start_build.
type BuildTool struct {
	svc    Service
	logger zerolog.Logger
}

// Definition returns the MCP tool definition for start_build.
func (t *BuildTool) Definition() mcp.Tool {
	return mcp.NewTool("start_build",
		mcp.WithDescription("Run a full build for a project and wait for it to finish. "+
			"Returns the build status and a per-agent summary."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project id: letters, digits, '-', '_' and '.'"),
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("What to build, in natural language"),
		),
	)
}

type agentLine struct {
	Status    domain.Status    `json:"status"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Hint      string           `json:"hint,omitempty"`
}

type buildResult struct {
	RunID     string                `json:"run_id"`
	Status    domain.BuildStatus    `json:"status"`
	Autonomy  domain.AutonomyReport `json:"autonomy"`
	Agents    map[string]agentLine  `json:"agents"`
	StatePath string                `json:"state_path,omitempty"`
}

// Handle processes the start_build tool call.
func (t *BuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	prompt := req.GetString("prompt", "")
	if projectID == "" || prompt == "" {
		return mcp.NewToolResultError("'project_id' and 'prompt' are required"), nil
	}

	t.logger.Info().Str("project_id", projectID).Msg("build requested over MCP")
	report, err := t.svc.StartBuild(ctx, engine.BuildRequest{ProjectID: projectID, Prompt: prompt})
	if report == nil {
		return mcp.NewToolResultError(errorText(err)), nil
	}

	res := buildResult{
		RunID:     report.RunID,
		Status:    report.Status,
		Autonomy:  report.Autonomy,
		Agents:    make(map[string]agentLine, len(report.Results)),
		StatePath: report.StatePath,
	}
	for name, r := range report.Results {
		res.Agents[name] = agentLine{Status: r.Status, ErrorKind: r.ErrorKind, Hint: r.Hint}
	}

	body, jerr := json.MarshalIndent(res, "", "  ")
	if jerr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", jerr)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(errorText(err) + "\n\n" + string(body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// errorText renders an error with its remediation.
func errorText(err error) string {
	if aborted, ok := errors.AsBuildAborted(err); ok {
		msg := fmt.Sprintf("Build aborted: agent %q failed (%s).", aborted.Agent, aborted.Kind)
		if aborted.Remediation != "" {
			msg += " " + aborted.Remediation
		}
		return msg
	}
	msg, action := errors.Actionable(err)
	if action != "" {
		return msg + " " + action
	}
	return msg
}

// StateTool handles get_state.
type StateTool struct {
	svc Service
}

// Definition returns the MCP tool definition for get_state.
func (t *StateTool) Definition() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Read the persisted state of a project as JSON. Pass 'key' to read one value."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project id"),
		),
		mcp.WithString("key",
			mcp.Description("Optional state key, e.g. test_results or artifacts"),
		),
	)
}

// Handle processes the get_state tool call.
func (t *StateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}
	st, err := t.svc.GetState(ctx, projectID)
	if err != nil {
		return mcp.NewToolResultError(errorText(err)), nil
	}

	var v any = st
	if key := req.GetString("key", ""); key != "" {
		val, ok := st.Get(key)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("state key %q is not set", key)), nil
		}
		v = val
	}
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// PlanTool handles plan_build.
type PlanTool struct {
	svc Service
}

// Definition returns the MCP tool definition for plan_build.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_build",
		mcp.WithDescription("Show the execution phases of the agent graph without running anything."),
	)
}

// Handle processes the plan_build tool call.
func (t *PlanTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(t.svc.Plan(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode plan: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
