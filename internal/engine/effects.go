package engine

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/behavior"
	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/tool"
	"github.com/mrz1836/foundry/internal/worker"
)

// Agents with built-in post-steps or delegated effects.
const (
	TestExecutor        = "Test Executor"
	SecurityChecker     = "Security Checker"
	UXAuditor           = "UX Auditor"
	PerformanceAnalyzer = "Performance Analyzer"
	ImageGeneration     = "Image Generation"
	VideoGeneration     = "Video Generation"
	ScrapingAgent       = "Scraping Agent"
)

const (
	testReportChars     = 2000
	securityReportChars = 1500
	commandReportChars  = 1500
	uxFileLimit         = 10
)

//nolint:gochecknoglobals // Static command and precondition tables
var (
	securityCommand = []string{"python", "-m", "bandit", "-r", ".", "-f", "txt", "-ll"}

	// commandPreconditions lists workspace paths of which at least one must
	// exist before a command-backed tool runner executes.
	commandPreconditions = map[string][]string{
		"Code Review Agent":      {"server.py", "backend"},
		"Bundle Analyzer Agent":  {"dist"},
		"Lighthouse Agent":       {"package.json"},
		"Dependency Audit Agent": {"package.json"},
	}

	defaultImageRoles = []string{"hero", "feature_1", "feature_2"}
	defaultVideoRoles = []string{"hero", "feature"}
)

// applyEffect performs the workspace side of an agent's effect and returns
// the final output plus the state change to commit with the agent result.
// An error means the effect could not be produced.
func (e *Engine) applyEffect(ctx context.Context, b *build, d *registry.Descriptor, output string, written []string) (string, commitFunc, error) {
	switch d.Effect.Kind {
	case registry.EffectStateWrite:
		commit, err := setter(d.Effect.Key, behavior.StateValue(d.Effect.Key, output))
		return output, commit, err

	case registry.EffectArtifactWrite:
		content := behavior.StripFences(output)
		inv := e.tools.Write(ctx, b.projectID, d.Name, d.Effect.Path, content)
		if !inv.OK() {
			return output, nil, fmt.Errorf("write %s: %s", d.Effect.Path, inv.Error)
		}
		art := domain.Artifact{Path: d.Effect.Path, Agent: d.Name, Bytes: len(content), WrittenAt: inv.EndedAt}
		return output, func(s *domain.ProjectState) error {
			s.Artifacts = upsertArtifact(s.Artifacts, art)
			return nil
		}, nil

	case registry.EffectToolRun:
		out, value := e.postStep(ctx, b, d, output)
		commit, err := setter(d.Effect.Key, value)
		return out, commit, err

	case registry.EffectRealTool:
		if len(written) == 0 {
			return output, nil, nil
		}
		now := e.clock.Now().UTC()
		arts := make([]domain.Artifact, 0, len(written))
		for _, p := range written {
			arts = append(arts, domain.Artifact{Path: p, Agent: d.Name, WrittenAt: now})
		}
		return output, func(s *domain.ProjectState) error {
			for _, a := range arts {
				s.Artifacts = upsertArtifact(s.Artifacts, a)
			}
			return nil
		}, nil

	case registry.EffectSpecial:
		return output, e.special(ctx, b, d, output), nil

	default:
		return output, nil, nil
	}
}

// setter checks value against the state schema before the commit, so a
// value of the wrong shape fails the agent instead of the commit.
func setter(key string, value any) (commitFunc, error) {
	if err := domain.NewProjectState().Set(key, value); err != nil {
		return nil, err
	}
	return func(s *domain.ProjectState) error { return s.Set(key, value) }, nil
}

// upsertArtifact replaces the entry for a.Path or appends a new one.
func upsertArtifact(list []domain.Artifact, a domain.Artifact) []domain.Artifact {
	for i := range list {
		if list[i].Path == a.Path {
			if a.Bytes == 0 {
				a.Bytes = list[i].Bytes
			}
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

// postStep runs the real check behind a tool_run agent and returns the
// augmented output and the value for its state key. Without the
// workspace inputs a check needs, the model output stands alone.
func (e *Engine) postStep(ctx context.Context, b *build, d *registry.Descriptor, output string) (string, any) {
	key := d.Effect.Key
	switch d.Name {
	case TestExecutor:
		return e.testStep(ctx, b, d, output)
	case SecurityChecker:
		if !e.anyExists(b.projectID, "server.py", "backend") {
			return output, reportValue(key, output)
		}
		inv := e.tools.Run(ctx, b.projectID, d.Name, securityCommand, e.cfg.ToolRunTimeout, "")
		if inv.ExitCode == nil || inv.Status == domain.ToolStatusTimeout || inv.Output == "" {
			out := output + "\n\n[REAL RUN] bandit not run (not installed or timeout)."
			return out, reportValue(key, out)
		}
		out := output + "\n\n[REAL RUN] bandit:\n" + headRunes(inv.Output, securityReportChars)
		return out, tool.CaptureValue(key, inv, constants.ReportMaxBytes)
	case UXAuditor:
		return e.uxStep(ctx, b, d, output)
	case PerformanceAnalyzer:
		inv := e.tools.Invoke(ctx, b.projectID, tool.Request{
			Kind:  domain.ToolList,
			Agent: d.Name,
			Args:  map[string]string{"path": ".", "recursive": "true", "count_lines": "true", "ext": ".py"},
		})
		if !inv.OK() {
			return output, reportValue(key, output)
		}
		out := fmt.Sprintf("%s\n\n[REAL RUN] Python lines in workspace: %d", output, listTotal(inv.Output))
		return out, reportValue(key, out)
	}

	if len(d.Effect.Command) == 0 {
		return output, reportValue(key, output)
	}
	if pre, ok := commandPreconditions[d.Name]; ok && !e.anyExists(b.projectID, pre...) {
		return output, reportValue(key, output)
	}
	inv := e.tools.Run(ctx, b.projectID, d.Name, d.Effect.Command, e.cfg.ToolRunTimeout, "")
	out := fmt.Sprintf("%s\n\n[REAL RUN] %s:\n%s", output, strings.Join(d.Effect.Command, " "),
		headRunes(inv.Report(), commandReportChars))
	return out, tool.CaptureValue(key, inv, constants.ReportMaxBytes)
}

func (e *Engine) testStep(ctx context.Context, b *build, d *registry.Descriptor, output string) (string, any) {
	argv, ok := e.tools.DetectTestCommand(b.projectID)
	if !ok {
		out := output + "\n\n[REAL RUN] No test dir or package.json; skipped."
		return out, domain.TestResults{Output: headRunes(out, constants.ReportMaxBytes), Status: "skipped"}
	}
	inv := e.tools.Run(ctx, b.projectID, d.Name, argv, e.cfg.ToolRunTimeout, "")
	label := "pytest"
	if argv[0] == "npm" {
		label = "npm test"
	}
	out := fmt.Sprintf("%s\n\n[REAL RUN] %s:\n%s", output, label, headRunes(inv.Report(), testReportChars))
	return out, tool.CaptureValue(d.Effect.Key, inv, constants.ReportMaxBytes)
}

func (e *Engine) uxStep(ctx context.Context, b *build, d *registry.Descriptor, output string) (string, any) {
	if !e.tools.Exists(b.projectID, "src") {
		return output, reportValue(d.Effect.Key, output)
	}
	inv := e.tools.Invoke(ctx, b.projectID, tool.Request{
		Kind:  domain.ToolList,
		Agent: d.Name,
		Args:  map[string]string{"path": "src", "recursive": "true", "ext": ".jsx", "contains": "aria-,role="},
	})
	var names []string
	for _, p := range behavior.Lines(inv.Output) {
		if len(names) == uxFileLimit {
			break
		}
		names = append(names, path.Base(p))
	}
	out := output + "\n\n[REAL RUN] No JSX with ARIA/role found in src/."
	if inv.OK() && len(names) > 0 {
		out = output + "\n\n[REAL RUN] Files with ARIA/role: " + strings.Join(names, ", ")
	}
	return out, reportValue(d.Effect.Key, out)
}

// reportValue shapes plain text for a tool_run state key.
func reportValue(key, text string) any {
	text = headRunes(text, constants.ReportMaxBytes)
	if key == "test_results" {
		return domain.TestResults{Output: text}
	}
	return text
}

// listTotal reads the "total" line of a count_lines listing.
func listTotal(listing string) int {
	for _, ln := range behavior.Lines(listing) {
		if rest, ok := strings.CutPrefix(ln, "total\t"); ok {
			n, _ := strconv.Atoi(strings.TrimSpace(rest))
			return n
		}
	}
	return 0
}

func (e *Engine) anyExists(projectID string, paths ...string) bool {
	return slices.ContainsFunc(paths, func(p string) bool { return e.tools.Exists(projectID, p) })
}

// special handles delegated effects: media lookups and scraped URLs.
func (e *Engine) special(ctx context.Context, b *build, d *registry.Descriptor, output string) commitFunc {
	switch d.Name {
	case ImageGeneration:
		found := e.resolveMedia(ctx, b, d, e.images, mediaRequests(output, b.prompt, defaultImageRoles, "image"))
		if len(found) == 0 {
			return nil
		}
		return func(s *domain.ProjectState) error {
			s.Images = mergeMedia(s.Images, found)
			return nil
		}
	case VideoGeneration:
		found := e.resolveMedia(ctx, b, d, e.videos, mediaRequests(output, b.prompt, defaultVideoRoles, "video"))
		if len(found) == 0 {
			return nil
		}
		return func(s *domain.ProjectState) error {
			s.Videos = mergeMedia(s.Videos, found)
			return nil
		}
	case ScrapingAgent:
		urls := behavior.URLLines(output)
		if len(urls) == 0 {
			return nil
		}
		return func(s *domain.ProjectState) error {
			for _, u := range urls {
				if !slices.Contains(s.ScrapeURLs, u) {
					s.ScrapeURLs = append(s.ScrapeURLs, u)
				}
			}
			return nil
		}
	}
	return nil
}

// mediaRequests returns the role to query map an agent asked for, or one
// query per default role derived from the build prompt.
func mediaRequests(output, prompt string, roles []string, noun string) map[string]string {
	if req := behavior.MediaRequests(output); len(req) > 0 {
		return req
	}
	subject := headRunes(prompt, 200)
	if subject == "" {
		subject = "modern web app"
	}
	out := make(map[string]string, len(roles))
	for _, role := range roles {
		out[role] = fmt.Sprintf("%s %s for %s", strings.ReplaceAll(role, "_", " "), noun, subject)
	}
	return out
}

// resolveMedia looks up each role in a stable order. A nil finder means the
// provider is not configured and nothing is resolved.
func (e *Engine) resolveMedia(ctx context.Context, b *build, d *registry.Descriptor, finder worker.MediaFinder, requests map[string]string) map[string]string {
	logger := b.logger.With().Str("agent", d.Name).Logger()
	if finder == nil {
		logger.Debug().Msg("media provider not configured")
		return nil
	}
	findCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	roles := make([]string, 0, len(requests))
	for role := range requests {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	found := map[string]string{}
	for _, role := range roles {
		url, err := finder.Find(findCtx, requests[role])
		if err != nil {
			logger.Warn().Err(err).Str("role", role).Msg("media lookup failed")
			continue
		}
		if url != "" {
			found[role] = url
		}
	}
	return found
}

func mergeMedia(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// persistOutput writes the agent's output under outputs/. Failures are
// logged only; the output already lives in state and results.
func (e *Engine) persistOutput(ctx context.Context, b *build, agent, output string, logger zerolog.Logger) {
	ext := ".md"
	if behavior.IsJSONLike(output) {
		ext = ".json"
	}
	rel := constants.OutputsDir + "/" + behavior.Slug(agent) + ext
	if inv := e.tools.Write(ctx, b.projectID, agent, rel, output); !inv.OK() {
		logger.Warn().Str("path", rel).Str("error", inv.Error).Msg("failed to persist agent output")
	}
}
