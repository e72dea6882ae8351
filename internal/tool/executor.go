// Package tool is the Tool Executor: the only component that touches the
// project workspace, runs subprocesses, or makes outbound HTTP calls.
//
// Every invocation returns a *domain.ToolInvocation and never a Go error;
// failures are carried by Status and ErrorKind. After each invocation a
// truncated entry is appended to the project's tool_log, and when the
// request names a CaptureKey the report is also written to that state key.
package tool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/clock"
	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/logging"
	"github.com/mrz1836/foundry/internal/state"
	"github.com/mrz1836/foundry/internal/workspace"
)

// Config holds executor limits and policy.
type Config struct {
	RunAllowlist         []string
	CommandTimeout       time.Duration
	HTTPTimeout          time.Duration
	MaxOutputBytes       int
	ReportMaxBytes       int
	ToolLogMax           int
	AllowPrivateNetworks bool
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		RunAllowlist:   DefaultAllowlist,
		CommandTimeout: constants.DefaultCommandTimeout,
		HTTPTimeout:    constants.DefaultHTTPTimeout,
		MaxOutputBytes: constants.ToolOutputMaxBytes,
		ReportMaxBytes: constants.ReportMaxBytes,
		ToolLogMax:     constants.ToolLogMaxEntries,
	}
}

// Request describes one tool invocation.
type Request struct {
	Kind  domain.ToolKind
	Agent string
	Args  map[string]string

	// CaptureKey, when set, receives the invocation report in state,
	// truncated to the report ceiling.
	CaptureKey string
}

// Executor runs tool requests against per-project workspaces.
type Executor struct {
	layout    *workspace.Layout
	store     state.Store
	runner    CommandRunner
	client    *http.Client
	guard     *URLGuard
	allowlist *Allowlist
	cfg       Config
	clock     clock.Clock
	logger    zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithCommandRunner replaces the os/exec runner.
func WithCommandRunner(r CommandRunner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithHTTPClient replaces the guarded HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

// WithClock sets the clock used for invocation timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// NewExecutor creates an Executor. Zero-valued limits in cfg take defaults.
func NewExecutor(layout *workspace.Layout, store state.Store, cfg Config, logger zerolog.Logger, opts ...Option) *Executor {
	def := DefaultConfig()
	if cfg.RunAllowlist == nil {
		cfg.RunAllowlist = def.RunAllowlist
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = def.MaxOutputBytes
	}
	if cfg.ReportMaxBytes <= 0 {
		cfg.ReportMaxBytes = def.ReportMaxBytes
	}
	if cfg.ToolLogMax <= 0 {
		cfg.ToolLogMax = def.ToolLogMax
	}

	guard := &URLGuard{AllowPrivate: cfg.AllowPrivateNetworks}
	e := &Executor{
		layout:    layout,
		store:     store,
		runner:    &ExecRunner{MaxOutputBytes: cfg.MaxOutputBytes},
		client:    newHTTPClient(guard),
		guard:     guard,
		allowlist: NewAllowlist(cfg.RunAllowlist),
		cfg:       cfg,
		clock:     clock.RealClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// outcome is the kind-specific result before it is stamped into an invocation.
type outcome struct {
	output     string
	err        error
	kind       domain.ToolErrorKind
	exitCode   *int
	statusCode int
	timeout    bool
}

// failure classifies a validation error by its sentinel.
func failure(err error) outcome {
	kind := domain.ToolErrorIO
	switch {
	case errors.Is(err, foundryerrors.ErrPathEscape):
		kind = domain.ToolErrorPathEscape
	case errors.Is(err, foundryerrors.ErrCommandNotAllowed), errors.Is(err, foundryerrors.ErrUnsafeURL):
		kind = domain.ToolErrorNotAllowed
	case errors.Is(err, foundryerrors.ErrBadToolArgs),
		errors.Is(err, foundryerrors.ErrReadOnlyQuery),
		errors.Is(err, foundryerrors.ErrEmptyValue):
		kind = domain.ToolErrorBadArgs
	}
	return outcome{kind: kind, err: err}
}

// Invoke executes req for projectID and records it. It never returns nil.
func (e *Executor) Invoke(ctx context.Context, projectID string, req Request) *domain.ToolInvocation {
	inv := &domain.ToolInvocation{
		Kind:      req.Kind,
		Agent:     req.Agent,
		Arguments: redactArgs(req.Args),
		StartedAt: e.clock.Now().UTC(),
	}

	var out outcome
	if err := ctxutil.Canceled(ctx); err != nil {
		out = outcome{kind: domain.ToolErrorIO, err: err}
	} else if _, err := e.layout.Ensure(projectID); err != nil {
		out = failure(err)
	} else {
		out = e.dispatch(ctx, projectID, req)
	}

	inv.EndedAt = e.clock.Now().UTC()
	inv.Output = out.output
	inv.ExitCode = out.exitCode
	inv.StatusCode = out.statusCode
	switch {
	case out.timeout:
		inv.Status = domain.ToolStatusTimeout
		inv.ErrorKind = domain.ToolErrorTimeout
	case out.err != nil:
		inv.Status = domain.ToolStatusError
		inv.ErrorKind = out.kind
	default:
		inv.Status = domain.ToolStatusOK
	}
	if out.err != nil {
		inv.Error = out.err.Error()
	}

	e.logger.Debug().
		Str("project_id", projectID).
		Str("agent", req.Agent).
		Str("kind", string(req.Kind)).
		Str("status", string(inv.Status)).
		Dur("duration", inv.EndedAt.Sub(inv.StartedAt)).
		Msg("tool invocation")

	e.record(ctx, projectID, inv, req.CaptureKey)
	return inv
}

func (e *Executor) dispatch(ctx context.Context, projectID string, req Request) outcome {
	args := req.Args
	if args == nil {
		args = map[string]string{}
	}
	switch req.Kind {
	case domain.ToolRun:
		return e.run(ctx, projectID, args)
	case domain.ToolRead:
		return e.read(projectID, args)
	case domain.ToolWrite:
		return e.write(projectID, args)
	case domain.ToolList:
		return e.list(projectID, args)
	case domain.ToolHTTP:
		return e.httpCall(ctx, args)
	case domain.ToolBrowse:
		return e.browse(ctx, args)
	case domain.ToolDBQuery:
		return e.dbQuery(ctx, projectID, args)
	case domain.ToolDBApply:
		return e.dbApply(ctx, projectID, args)
	default:
		return outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("unknown tool kind %q: %w", req.Kind, foundryerrors.ErrBadToolArgs)}
	}
}

func (e *Executor) run(ctx context.Context, projectID string, args map[string]string) outcome {
	argv := strings.Fields(args["command"])
	if len(argv) == 0 {
		return outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("command %w", foundryerrors.ErrBadToolArgs)}
	}
	if !e.allowlist.Allows(argv) {
		return failure(fmt.Errorf("%q: %w", strings.Join(argv, " "), foundryerrors.ErrCommandNotAllowed))
	}

	dir, err := e.layout.Dir(projectID)
	if err != nil {
		return failure(err)
	}
	if cwd := args["cwd"]; cwd != "" {
		if dir, err = e.layout.Resolve(projectID, cwd); err != nil {
			return failure(err)
		}
	}

	timeout := e.cfg.CommandTimeout
	if d, ok := parseSeconds(args["timeout"]); ok {
		timeout = d
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, code, runErr := e.runner.Run(runCtx, dir, argv)
	output := truncate(joinStreams(stdout, stderr), e.cfg.MaxOutputBytes)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return outcome{
			output:  output,
			timeout: true,
			err:     fmt.Errorf("%s after %s: %w", argv[0], timeout, foundryerrors.ErrToolTimeout),
		}
	}
	if runErr != nil {
		return outcome{output: output, kind: domain.ToolErrorIO, err: runErr}
	}
	exit := code
	if code != 0 {
		return outcome{
			output:   output,
			exitCode: &exit,
			kind:     domain.ToolErrorNonZeroExit,
			err:      fmt.Errorf("exit %d: %w", code, foundryerrors.ErrNonZeroExit),
		}
	}
	return outcome{output: output, exitCode: &exit}
}

func joinStreams(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

func parseSeconds(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n * float64(time.Second)), true
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// redactArgs copies args for the invocation record, dropping file contents
// and scrubbing credentials.
func redactArgs(args map[string]string) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch {
		case k == "content" || k == "sql" || k == "body":
			out[k] = fmt.Sprintf("<%d bytes>", len(v))
		default:
			out[k] = logging.SafeValue(k, v)
		}
	}
	return out
}

// Run executes an allowlisted command in the project workspace.
func (e *Executor) Run(ctx context.Context, projectID, agent string, argv []string, timeout time.Duration, captureKey string) *domain.ToolInvocation {
	args := map[string]string{"command": strings.Join(argv, " ")}
	if timeout > 0 {
		args["timeout"] = timeout.String()
	}
	return e.Invoke(ctx, projectID, Request{Kind: domain.ToolRun, Agent: agent, Args: args, CaptureKey: captureKey})
}

// Write creates or replaces a workspace file.
func (e *Executor) Write(ctx context.Context, projectID, agent, path, content string) *domain.ToolInvocation {
	return e.Invoke(ctx, projectID, Request{
		Kind:  domain.ToolWrite,
		Agent: agent,
		Args:  map[string]string{"path": path, "content": content},
	})
}

// Read returns a workspace file's content.
func (e *Executor) Read(ctx context.Context, projectID, agent, path string) *domain.ToolInvocation {
	return e.Invoke(ctx, projectID, Request{Kind: domain.ToolRead, Agent: agent, Args: map[string]string{"path": path}})
}
