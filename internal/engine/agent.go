package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/contextbuilder"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/worker"
)

// invocation is the raw outcome of an agent's worker.
type invocation struct {
	output  string
	tokens  int
	written []string
	kind    domain.ErrorKind
	err     error
}

// commitFunc applies an agent's effect to the state document.
type commitFunc func(*domain.ProjectState) error

// runAgent drives one agent through gate, worker, effect, criticality
// policy, and commit. It never returns an error: every outcome lands in
// the build's results, and aborts or state failures are flagged on b.
func (e *Engine) runAgent(ctx context.Context, b *build, d *registry.Descriptor, visible map[string]string) {
	logger := b.logger.With().Str("agent", d.Name).Logger()
	started := e.clock.Now()
	b.emitter.Emit(b.projectID, domain.EventAgentStarted, d.Name, "agent started",
		map[string]any{"kind": string(d.Kind), "criticality": string(d.Criticality)})

	inv := e.invoke(ctx, b, d, visible)
	res := &domain.ExecutionResult{
		Agent:     d.Name,
		Output:    inv.output,
		Status:    domain.StatusOK,
		Tokens:    inv.tokens,
		ErrorKind: inv.kind,
	}

	var commit commitFunc
	if res.ErrorKind == domain.ErrorKindNone {
		out, c, err := e.applyEffect(ctx, b, d, inv.output, inv.written)
		if err != nil {
			inv.err = err
			res.ErrorKind = domain.ErrorKindInternalError
		} else {
			res.Output = out
			commit = c
		}
	}

	recordError := false
	if res.ErrorKind != domain.ErrorKindNone {
		if inv.err != nil {
			res.Error = inv.err.Error()
		}
		if ctx.Err() != nil {
			// Cancellation is not the agent's failure: no abort, no fallback.
			e.onCanceled(b, d, res, logger)
		} else {
			res.Hint = d.Hint(res.ErrorKind)
			commit, recordError = e.onFailure(ctx, b, d, res, inv.err, logger)
		}
	}
	res.DurationMs = e.clock.Now().Sub(started).Milliseconds()

	if res.Status != domain.StatusFailed && res.Output != "" {
		e.persistOutput(ctx, b, d.Name, res.Output, logger)
	}

	now := e.clock.Now().UTC()
	_, err := e.store.Mutate(ctxutil.Detached(ctx), b.projectID, func(s *domain.ProjectState) error {
		if commit != nil {
			if err := commit(s); err != nil {
				return err
			}
		}
		if s.AgentResults == nil {
			s.AgentResults = map[string]domain.AgentOutcome{}
		}
		s.AgentResults[d.Name] = domain.AgentOutcome{
			Status:        res.Status,
			ErrorKind:     res.ErrorKind,
			DurationMs:    res.DurationMs,
			Tokens:        res.Tokens,
			OutputPreview: headRunes(res.Output, constants.ResultPreviewChars),
		}
		if recordError {
			if s.AgentErrors == nil {
				s.AgentErrors = map[string]domain.AgentErrorRecord{}
			}
			s.AgentErrors[d.Name] = domain.AgentErrorRecord{
				Kind:    res.ErrorKind,
				Message: res.Error,
				Hint:    res.Hint,
				At:      now,
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to commit agent effect")
		b.failState(foundryerrors.Wrapf(err, "commit %s", d.Name))
	}
	b.record(res)

	if res.Status == domain.StatusOK {
		logger.Debug().Int64("duration_ms", res.DurationMs).Int("tokens", res.Tokens).Msg("agent completed")
		b.emitter.Emit(b.projectID, domain.EventAgentCompleted, d.Name, "agent completed", map[string]any{
			"duration_ms": res.DurationMs,
			"tokens":      res.Tokens,
		})
	}
}

// invoke gates on dependencies and runs the agent's worker under its
// timeout. Panics in the worker are reported as internal errors.
func (e *Engine) invoke(ctx context.Context, b *build, d *registry.Descriptor, visible map[string]string) (inv invocation) {
	if err := gate(b, d); err != nil {
		return invocation{kind: domain.ErrorKindInternalError, err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			inv = invocation{kind: domain.ErrorKindInternalError, err: fmt.Errorf("worker panic: %v", r)}
		}
	}()

	if d.Kind == registry.KindTool {
		tr, err := e.toolFuncs[d.Name](runCtx, ToolEnv{
			ProjectID:      b.projectID,
			Agent:          d.Name,
			Prompt:         b.prompt,
			Outputs:        visible,
			Tools:          e.tools,
			CommandTimeout: e.cfg.ToolRunTimeout,
		})
		inv = invocation{output: tr.Output, written: tr.Written, err: err}
		switch {
		case ctx.Err() != nil:
			inv.kind, inv.err = domain.ErrorKindInternalError, ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			inv.kind = domain.ErrorKindTimeout
		case err != nil:
			inv.kind = domain.ErrorKindInternalError
		case tr.Output == "":
			inv.kind, inv.err = domain.ErrorKindEmptyOutput, foundryerrors.ErrEmptyOutput
		}
		return inv
	}

	user := contextbuilder.Build(contextbuilder.Input{
		Agent:     d.Name,
		DependsOn: d.DependsOn,
		Prompt:    b.prompt,
		Outputs:   visible,
	}, e.cfg.Context)
	c, err := e.llm.Complete(runCtx, worker.Request{System: d.Prompt, User: user, MaxTokens: e.cfg.MaxTokens})
	inv = invocation{err: err, kind: worker.Classify(c, err, runCtx.Err())}
	if c != nil {
		inv.output, inv.tokens = c.Text, c.Tokens
	}
	switch {
	case inv.kind == domain.ErrorKindNone:
	case ctx.Err() != nil:
		inv.kind, inv.err = domain.ErrorKindInternalError, ctx.Err()
	case inv.kind == domain.ErrorKindTimeout && inv.err == nil:
		inv.err = runCtx.Err()
	case inv.kind == domain.ErrorKindEmptyOutput:
		inv.err = foundryerrors.ErrEmptyOutput
	}
	return inv
}

// onCanceled settles an agent interrupted by build cancellation.
func (e *Engine) onCanceled(b *build, d *registry.Descriptor, res *domain.ExecutionResult, logger zerolog.Logger) {
	res.Status = domain.StatusFailed
	res.ErrorKind = domain.ErrorKindInternalError
	logger.Info().Msg("agent interrupted by cancellation")
	b.emitter.Emit(b.projectID, domain.EventAgentFailed, d.Name, "build canceled", map[string]any{
		"error_kind": string(res.ErrorKind),
		"canceled":   true,
	})
}

// onFailure applies the criticality policy to a failed result. It returns
// the effect to commit (the fallback's, if any) and whether the failure
// belongs in agent_errors.
func (e *Engine) onFailure(ctx context.Context, b *build, d *registry.Descriptor, res *domain.ExecutionResult, cause error, logger zerolog.Logger) (commitFunc, bool) {
	res.Status = domain.StatusFailed
	b.emitter.Emit(b.projectID, domain.EventAgentFailed, d.Name, res.Hint, map[string]any{
		"error_kind":  string(res.ErrorKind),
		"criticality": string(d.Criticality),
		"error":       res.Error,
	})

	switch d.Criticality {
	case domain.CriticalityCritical:
		logger.Error().Str("error_kind", string(res.ErrorKind)).Str("error", res.Error).Msg("critical agent failed; aborting build")
		b.abort(&foundryerrors.BuildAbortedError{
			Agent:       d.Name,
			Kind:        string(res.ErrorKind),
			Remediation: res.Hint,
			Cause:       cause,
		})
		return nil, false

	case domain.CriticalityHigh:
		if d.HasFallback() {
			text := d.Fallback()
			out, commit, err := e.applyEffect(ctx, b, d, text, nil)
			if err == nil {
				res.Status = domain.StatusFallback
				res.Output = out
				logger.Warn().Str("error_kind", string(res.ErrorKind)).Msg("agent failed; using fallback")
				b.emitter.Emit(b.projectID, domain.EventAgentFallback, d.Name, "fallback output used",
					map[string]any{"error_kind": string(res.ErrorKind)})
				return commit, false
			}
			logger.Warn().Err(err).Msg("fallback effect failed")
		}
		logger.Warn().Str("error_kind", string(res.ErrorKind)).Str("error", res.Error).Msg("agent failed")
		return nil, true

	case domain.CriticalityMedium:
		logger.Warn().Str("error_kind", string(res.ErrorKind)).Str("error", res.Error).Msg("agent failed")
		return nil, true

	default:
		logger.Info().Str("error_kind", string(res.ErrorKind)).Msg("low criticality agent failed")
		return nil, false
	}
}
