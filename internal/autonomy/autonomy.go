// Package autonomy is the post-build self-heal pass. After the agent graph
// settles it looks at the Test Executor and Security Checker outputs and,
// at most once per class, re-runs the test suite or the security scanner.
// It never re-enters the agent graph.
package autonomy

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/events"
	"github.com/mrz1836/foundry/internal/state"
	"github.com/mrz1836/foundry/internal/tool"
)

// Agents whose outputs the loop inspects.
const (
	TestAgent     = "Test Executor"
	SecurityAgent = "Security Checker"
)

// Signatures are the case-insensitive substrings that mark an output as
// failing. They are the only coupling between agent text and the loop.
type Signatures struct {
	Tests    []string
	Security []string
}

// DefaultSignatures returns the stock signatures.
func DefaultSignatures() Signatures {
	return Signatures{
		Tests:    []string{"failed", "error", "exit 1"},
		Security: []string{"high", "medium", "severity"},
	}
}

// Match returns the first signature contained in output, or "".
func Match(output string, signatures []string) string {
	lower := strings.ToLower(output)
	for _, sig := range signatures {
		if sig != "" && strings.Contains(lower, strings.ToLower(sig)) {
			return sig
		}
	}
	return ""
}

// Tools is the slice of the Tool Executor the loop needs.
type Tools interface {
	Run(ctx context.Context, projectID, agent string, argv []string, timeout time.Duration, captureKey string) *domain.ToolInvocation
	DetectTestCommand(projectID string) ([]string, bool)
}

// Config controls the loop.
type Config struct {
	Enabled         bool
	TestTimeout     time.Duration
	SecurityTimeout time.Duration
	SecurityCommand []string
	ReportMaxBytes  int
	Signatures      Signatures
}

// DefaultConfig returns the stock loop configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		TestTimeout:     constants.AutonomyTestTimeout,
		SecurityTimeout: constants.AutonomySecurityTimeout,
		SecurityCommand: []string{"python", "-m", "bandit", "-r", ".", "-f", "txt", "-ll"},
		ReportMaxBytes:  constants.ReportMaxBytes,
		Signatures:      DefaultSignatures(),
	}
}

// Loop runs the self-heal pass.
type Loop struct {
	tools  Tools
	store  state.Store
	cfg    Config
	logger zerolog.Logger
}

// New creates a Loop.
func New(tools Tools, store state.Store, cfg Config, logger zerolog.Logger) *Loop {
	def := DefaultConfig()
	if cfg.TestTimeout <= 0 {
		cfg.TestTimeout = def.TestTimeout
	}
	if cfg.SecurityTimeout <= 0 {
		cfg.SecurityTimeout = def.SecurityTimeout
	}
	if len(cfg.SecurityCommand) == 0 {
		cfg.SecurityCommand = def.SecurityCommand
	}
	if cfg.ReportMaxBytes <= 0 {
		cfg.ReportMaxBytes = def.ReportMaxBytes
	}
	if len(cfg.Signatures.Tests) == 0 && len(cfg.Signatures.Security) == 0 {
		cfg.Signatures = def.Signatures
	}
	return &Loop{tools: tools, store: store, cfg: cfg, logger: logger}
}

// Run inspects results and performs at most one test retry and one
// security retry, announcing each through emitter (nil discards). State
// errors are returned with the report so far.
func (l *Loop) Run(ctx context.Context, projectID string, results map[string]*domain.ExecutionResult, emitter events.Emitter) (domain.AutonomyReport, error) {
	var report domain.AutonomyReport
	if !l.cfg.Enabled {
		return report, nil
	}
	if emitter == nil {
		emitter = events.Discard{}
	}
	if err := ctxutil.Canceled(ctx); err != nil {
		return report, err
	}

	if sig := Match(output(results, TestAgent), l.cfg.Signatures.Tests); sig != "" {
		ran, err := l.retryTests(ctx, projectID, sig, emitter)
		if ran {
			report.RanTests = true
			report.Iterations++
		}
		if err != nil {
			return report, err
		}
	}

	if err := ctxutil.Canceled(ctx); err != nil {
		return report, err
	}

	if sig := Match(output(results, SecurityAgent), l.cfg.Signatures.Security); sig != "" {
		emitter.Emit(projectID, domain.EventAutonomyRetry, SecurityAgent, "security findings; re-running scanner",
			map[string]any{"reason": sig})
		l.tools.Run(ctx, projectID, SecurityAgent, l.cfg.SecurityCommand, l.cfg.SecurityTimeout, "security_report")
		report.RanSecurity = true
		report.Iterations++
	}

	l.logger.Info().
		Bool("ran_tests", report.RanTests).
		Bool("ran_security", report.RanSecurity).
		Int("iterations", report.Iterations).
		Msg("autonomy pass finished")
	return report, nil
}

// retryTests re-runs the suite when one is recognizable in the workspace.
func (l *Loop) retryTests(ctx context.Context, projectID, sig string, emitter events.Emitter) (bool, error) {
	argv, ok := l.tools.DetectTestCommand(projectID)
	if !ok {
		l.logger.Debug().Str("reason", sig).Msg("test failure signature but no test suite in workspace")
		return false, nil
	}

	emitter.Emit(projectID, domain.EventAutonomyRetry, TestAgent, "test failures; re-running suite",
		map[string]any{"reason": sig, "command": strings.Join(argv, " ")})

	inv := l.tools.Run(ctx, projectID, TestAgent, argv, l.cfg.TestTimeout, "")
	value, _ := tool.CaptureValue("test_results", inv, l.cfg.ReportMaxBytes).(domain.TestResults)
	value.AutonomyRetry = true

	_, err := l.store.Mutate(ctxutil.Detached(ctx), projectID, func(s *domain.ProjectState) error {
		s.TestResults = value
		return nil
	})
	if err != nil {
		return true, foundryerrors.Wrap(err, "failed to persist autonomy test results")
	}
	return true, nil
}

func output(results map[string]*domain.ExecutionResult, agent string) string {
	if r, ok := results[agent]; ok && r != nil {
		return r.Output
	}
	return ""
}
