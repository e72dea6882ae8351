package engine

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/events"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/workspace"
)

// build is the state of one run.
type build struct {
	id        string
	projectID string
	prompt    string
	emitter   events.Emitter
	logger    zerolog.Logger

	mu       sync.Mutex
	results  map[string]*domain.ExecutionResult
	outputs  map[string]string
	aborted  *foundryerrors.BuildAbortedError
	stateErr error
}

// record stores a settled result. Only ok and fallback outputs are visible
// to later agents.
func (b *build) record(res *domain.ExecutionResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[res.Agent] = res
	if res.Status != domain.StatusFailed && res.Output != "" {
		b.outputs[res.Agent] = res.Output
	}
}

// snapshot returns the outputs visible to the next phase.
func (b *build) snapshot() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.outputs)
}

func (b *build) settled(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.results[name]
	return ok
}

func (b *build) abort(err *foundryerrors.BuildAbortedError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.aborted == nil {
		b.aborted = err
	}
}

func (b *build) failState(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stateErr == nil {
		b.stateErr = err
	}
}

// halted reports whether no further agents may be dispatched.
func (b *build) halted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aborted != nil || b.stateErr != nil
}

// StartBuild runs the whole graph for a project, then the autonomy pass.
//
// A critical agent failure stops dispatching, lets in-flight agents of the
// same phase settle, and returns the partial report with a
// *errors.BuildAbortedError. Cancellation stops dispatching the same way
// but skips the criticality policy for interrupted agents and returns
// ctx.Err(). State store failures are returned with the partial report.
func (e *Engine) StartBuild(ctx context.Context, req BuildRequest) (*BuildReport, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if _, err := workspace.SafeID(req.ProjectID); err != nil {
		return nil, err
	}

	runID := newRunID()
	unlock, err := e.lock(req.ProjectID, runID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger := e.logger.With().
		Str("project_id", req.ProjectID).
		Str("run_id", runID).
		Logger()
	ctx = logger.WithContext(ctx)

	b := &build{
		id:        runID,
		projectID: req.ProjectID,
		prompt:    req.Prompt,
		emitter:   &events.Fanout{Hub: e.hub, Callback: req.Callback, Logger: logger, Clock: e.clock},
		logger:    logger,
		results:   map[string]*domain.ExecutionResult{},
		outputs:   map[string]string{},
	}

	report := &BuildReport{
		RunID:     runID,
		ProjectID: req.ProjectID,
		Status:    domain.BuildStatusRunning,
		Phases:    e.plan.Phases,
		Results:   b.results,
	}
	report.StatePath, _ = e.store.Path(req.ProjectID)

	started := e.clock.Now().UTC()
	if err := e.commitBuildRecord(ctx, req.ProjectID, domain.BuildRecord{
		RunID:     runID,
		Status:    domain.BuildStatusRunning,
		StartedAt: &started,
		Phases:    len(e.plan.Phases),
	}); err != nil {
		return report, err
	}

	logger.Info().Int("agents", e.plan.Len()).Int("phases", len(e.plan.Phases)).Msg("build started")
	b.emitter.Emit(req.ProjectID, domain.EventBuildStarted, "", "build started",
		map[string]any{"run_id": runID, "phases": len(e.plan.Phases), "agents": e.plan.Len()})

	for i, phase := range e.plan.Phases {
		if b.halted() || ctx.Err() != nil {
			break
		}
		b.emitter.Emit(req.ProjectID, domain.EventPhaseStarted, "", "phase started",
			map[string]any{"phase": i + 1, "agents": phase})
		e.runPhase(ctx, b, phase)
	}

	return e.finish(ctx, b, report, started)
}

// runPhase runs one phase and waits for every dispatched agent to settle.
// Agents see outputs as of the start of the phase, never their siblings'.
func (e *Engine) runPhase(ctx context.Context, b *build, phase []string) {
	visible := b.snapshot()

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxParallel)
	for _, name := range phase {
		if b.halted() || ctx.Err() != nil {
			break
		}
		d, err := e.registry.Get(name)
		if err != nil {
			b.logger.Error().Err(err).Str("agent", name).Msg("planned agent missing from registry")
			continue
		}
		g.Go(func() error {
			if b.halted() || ctx.Err() != nil {
				return nil
			}
			e.runAgent(ctx, b, d, visible)
			return nil
		})
	}
	_ = g.Wait()
}

// finish writes the terminal build record and assembles the report.
func (e *Engine) finish(ctx context.Context, b *build, report *BuildReport, started time.Time) (*BuildReport, error) {
	b.mu.Lock()
	aborted, stateErr := b.aborted, b.stateErr
	report.Results = maps.Clone(b.results)
	b.mu.Unlock()

	rec := domain.BuildRecord{RunID: b.id, StartedAt: &started, Phases: len(e.plan.Phases)}
	var result error
	switch {
	case stateErr != nil:
		rec.Status = domain.BuildStatusAborted
		result = foundryerrors.Wrap(stateErr, "build stopped on a state store failure")
	case ctx.Err() != nil:
		rec.Status = domain.BuildStatusCanceled
		result = ctx.Err()
	case aborted != nil:
		rec.Status = domain.BuildStatusAborted
		rec.AbortedBy = aborted.Agent
		rec.ErrorKind = domain.ErrorKind(aborted.Kind)
		aborted.StatePath = report.StatePath
		b.emitter.Emit(b.projectID, domain.EventBuildAborted, aborted.Agent, aborted.Remediation,
			map[string]any{"error_kind": aborted.Kind})
		result = aborted
	default:
		if e.autonomy != nil {
			rep, err := e.autonomy.Run(ctx, b.projectID, report.Results, b.emitter)
			report.Autonomy = rep
			result = err
		}
		rec.Status = domain.BuildStatusCompleted
	}

	ended := e.clock.Now().UTC()
	rec.EndedAt = &ended
	report.Status = rec.Status

	detached := ctxutil.Detached(ctx)
	if err := e.commitBuildRecord(detached, b.projectID, rec); err != nil && result == nil {
		result = err
	}
	st, err := e.store.Load(detached, b.projectID)
	if err != nil && result == nil {
		result = err
	}
	report.State = st

	if rec.Status == domain.BuildStatusCompleted {
		b.emitter.Emit(b.projectID, domain.EventBuildCompleted, "", "build completed", map[string]any{
			"iterations":   report.Autonomy.Iterations,
			"duration_ms":  ended.Sub(started).Milliseconds(),
			"ran_tests":    report.Autonomy.RanTests,
			"ran_security": report.Autonomy.RanSecurity,
		})
	}
	b.logger.Info().
		Str("status", string(rec.Status)).
		Dur("duration", ended.Sub(started)).
		Msg("build finished")
	return report, result
}

func (e *Engine) commitBuildRecord(ctx context.Context, projectID string, rec domain.BuildRecord) error {
	_, err := e.store.Mutate(ctx, projectID, func(s *domain.ProjectState) error {
		s.LastBuild = rec
		return nil
	})
	return err
}

// gate checks that every dependency settled in this run.
func gate(b *build, d *registry.Descriptor) error {
	for _, dep := range d.DependsOn {
		if !b.settled(dep) {
			return errors.New("dependency " + dep + " has not settled")
		}
	}
	return nil
}
