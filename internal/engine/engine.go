// Package engine is the Execution Engine. It drives one build of a project
// through the agent graph: phases run in order, agents within a phase run
// concurrently up to a limit, every agent's effect is committed to state
// as soon as it settles, and the autonomy pass runs once the graph is done.
//
// Import rules:
//   - CAN import: registry, dag, behavior, contextbuilder, worker, tool,
//     state, events, autonomy, domain, errors, constants
//   - MUST NOT import: internal/cli, internal/config, internal/mcpserver
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/autonomy"
	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/clock"
	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/contextbuilder"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/dag"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/events"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/state"
	"github.com/mrz1836/foundry/internal/tool"
	"github.com/mrz1836/foundry/internal/worker"
	"github.com/mrz1836/foundry/internal/workspace"
)

// Config holds engine limits.
type Config struct {
	// MaxParallel bounds concurrent agents within one phase.
	MaxParallel int

	// MaxTokens is the completion budget per LLM call.
	MaxTokens int

	// ToolRunTimeout bounds post-step commands of tool_run agents.
	ToolRunTimeout time.Duration

	Context contextbuilder.Config
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxParallel:    constants.DefaultMaxParallel,
		MaxTokens:      constants.DefaultMaxTokens,
		ToolRunTimeout: constants.ToolRunTimeout,
		Context:        contextbuilder.DefaultConfig(),
	}
}

// BuildRequest starts a build.
type BuildRequest struct {
	ProjectID string
	Prompt    string

	// Callback, when set, receives every event of this build synchronously.
	Callback events.Callback
}

// BuildReport is the outcome of StartBuild. On abort it is returned
// together with a *errors.BuildAbortedError and holds the partial results.
type BuildReport struct {
	RunID     string
	ProjectID string
	Status    domain.BuildStatus
	Phases    [][]string
	Results   map[string]*domain.ExecutionResult
	Autonomy  domain.AutonomyReport
	State     *domain.ProjectState
	StatePath string
}

// Engine runs builds. It is safe for concurrent use across projects; a
// second build of a project that is already building is rejected.
type Engine struct {
	registry  *registry.Registry
	plan      *dag.Plan
	sets      *behavior.Sets
	store     state.Store
	tools     *tool.Executor
	llm       worker.Completer
	images    worker.MediaFinder
	videos    worker.MediaFinder
	autonomy  *autonomy.Loop
	hub       *events.Hub
	toolFuncs map[string]ToolFunc
	cfg       Config
	clock     clock.Clock
	logger    zerolog.Logger

	mu     sync.Mutex
	active map[string]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSets checks the registry against explicit real-behavior sets instead
// of the sets derived from descriptor effects.
func WithSets(s *behavior.Sets) Option {
	return func(e *Engine) { e.sets = s }
}

// WithMedia sets the image and video finders. Nil disables a finder.
func WithMedia(images, videos worker.MediaFinder) Option {
	return func(e *Engine) {
		e.images = images
		e.videos = videos
	}
}

// WithAutonomy sets the post-build self-heal loop.
func WithAutonomy(l *autonomy.Loop) Option {
	return func(e *Engine) { e.autonomy = l }
}

// WithHub publishes build events to hub subscribers.
func WithHub(h *events.Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// WithClock sets the clock used for build timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithToolFunc registers or replaces the worker of a tool agent.
func WithToolFunc(agent string, fn ToolFunc) Option {
	return func(e *Engine) { e.toolFuncs[agent] = fn }
}

// New validates the registry, plans the graph, and returns an engine.
// Registry violations are configuration errors and are returned joined.
func New(reg *registry.Registry, store state.Store, tools *tool.Executor, llm worker.Completer, cfg Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	def := DefaultConfig()
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = def.MaxParallel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.ToolRunTimeout <= 0 {
		cfg.ToolRunTimeout = def.ToolRunTimeout
	}
	if llm == nil {
		llm = worker.Offline{}
	}

	e := &Engine{
		registry:  reg,
		store:     store,
		tools:     tools,
		llm:       llm,
		toolFuncs: builtinToolFuncs(),
		cfg:       cfg,
		clock:     clock.RealClock{},
		logger:    logger,
		active:    map[string]string{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sets == nil {
		e.sets = behavior.FromRegistry(reg)
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	plan, err := dag.Build(reg)
	if err != nil {
		return nil, err
	}
	e.plan = plan
	return e, nil
}

// validate runs every startup check.
func (e *Engine) validate() error {
	if err := e.registry.Validate(); err != nil {
		return err
	}
	if err := behavior.Check(e.registry, e.sets); err != nil {
		return err
	}
	for _, d := range e.registry.List() {
		if d.Kind == registry.KindTool && e.toolFuncs[d.Name] == nil {
			return foundryerrors.Join(foundryerrors.ErrConfig, foundryerrors.Wrapf(foundryerrors.ErrNoWorker, "%s", d.Name))
		}
	}
	return nil
}

// Plan returns the execution phases of the loaded registry.
func (e *Engine) Plan() *dag.Plan {
	return e.plan
}

// Registry returns the loaded registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// GetState returns the persisted state of a project.
func (e *Engine) GetState(ctx context.Context, projectID string) (*domain.ProjectState, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if _, err := workspace.SafeID(projectID); err != nil {
		return nil, err
	}
	return e.store.Load(ctx, projectID)
}

// lock claims the build slot of a project.
func (e *Engine) lock(projectID, runID string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if running, ok := e.active[projectID]; ok {
		return nil, foundryerrors.Wrapf(foundryerrors.ErrBuildInProgress, "project %s (run %s)", projectID, running)
	}
	e.active[projectID] = runID
	return func() {
		e.mu.Lock()
		delete(e.active, projectID)
		e.mu.Unlock()
	}, nil
}

// Building reports whether a build of projectID is in progress.
func (e *Engine) Building(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[projectID]
	return ok
}

func newRunID() string {
	return uuid.NewString()
}
