package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/autonomy"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/registry"
	"github.com/mrz1836/foundry/internal/state"
	"github.com/mrz1836/foundry/internal/testutil"
	"github.com/mrz1836/foundry/internal/tool"
	"github.com/mrz1836/foundry/internal/worker"
	"github.com/mrz1836/foundry/internal/workspace"
)

const project = "demo"

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) add(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...)
}

func (l *eventLog) has(kind domain.EventKind, agent string) bool {
	for _, ev := range l.all() {
		if ev.Kind == kind && ev.Agent == agent {
			return true
		}
	}
	return false
}

// replies answers each agent by its system prompt, which tests set to the
// agent name. Agents without a reply get empty output.
type replies struct {
	mu    sync.Mutex
	fns   map[string]func(ctx context.Context, req worker.Request) (*worker.Completion, error)
	users map[string]string
}

func newReplies() *replies {
	return &replies{
		fns:   map[string]func(context.Context, worker.Request) (*worker.Completion, error){},
		users: map[string]string{},
	}
}

func (r *replies) text(agent, text string) *replies {
	return r.fn(agent, func(context.Context, worker.Request) (*worker.Completion, error) {
		return &worker.Completion{Text: text, Tokens: 7}, nil
	})
}

func (r *replies) fn(agent string, fn func(ctx context.Context, req worker.Request) (*worker.Completion, error)) *replies {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[agent] = fn
	return r
}

func (r *replies) seen(agent string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[agent]
	return u, ok
}

func (r *replies) completer() worker.Completer {
	return worker.CompleterFunc(func(ctx context.Context, req worker.Request) (*worker.Completion, error) {
		r.mu.Lock()
		r.users[req.System] = req.User
		fn := r.fns[req.System]
		r.mu.Unlock()
		if fn == nil {
			return &worker.Completion{}, nil
		}
		return fn(ctx, req)
	})
}

func llmAgent(name string, effect registry.Effect, deps ...string) *registry.Descriptor {
	return &registry.Descriptor{
		Name:        name,
		DependsOn:   deps,
		Criticality: domain.CriticalityMedium,
		Timeout:     5 * time.Second,
		Kind:        registry.KindLLM,
		Prompt:      name,
		Effect:      effect,
	}
}

func compositeAgent(name, key string, deps ...string) *registry.Descriptor {
	d := llmAgent(name, registry.ToolRun(key), deps...)
	d.Kind = registry.KindComposite
	return d
}

func toolAgent(name string, deps ...string) *registry.Descriptor {
	d := llmAgent(name, registry.RealTool(), deps...)
	d.Kind = registry.KindTool
	return d
}

func newRegistry(t *testing.T, ds ...*registry.Descriptor) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, d := range ds {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

type harness struct {
	engine *Engine
	store  state.Store
	runner *testutil.ScriptedRunner
	events *eventLog
	dir    string
}

func newHarness(t *testing.T, reg *registry.Registry, llm worker.Completer, opts ...Option) *harness {
	t.Helper()
	return newHarnessWithConfig(t, reg, llm, DefaultConfig(), opts...)
}

func newHarnessWithConfig(t *testing.T, reg *registry.Registry, llm worker.Completer, cfg Config, opts ...Option) *harness {
	t.Helper()
	layout, err := workspace.NewLayout(t.TempDir())
	require.NoError(t, err)
	dir, err := layout.Ensure(project)
	require.NoError(t, err)

	store := state.NewFileStore(layout, zerolog.Nop())
	runner := testutil.NewScriptedRunner()
	exec := tool.NewExecutor(layout, store, tool.Config{}, zerolog.Nop(), tool.WithCommandRunner(runner))
	loop := autonomy.New(exec, store, autonomy.DefaultConfig(), zerolog.Nop())

	eng, err := New(reg, store, exec, llm, cfg, zerolog.Nop(), append([]Option{WithAutonomy(loop)}, opts...)...)
	require.NoError(t, err)
	return &harness{engine: eng, store: store, runner: runner, events: &eventLog{}, dir: dir}
}

func (h *harness) build(t *testing.T, prompt string) (*BuildReport, error) {
	t.Helper()
	return h.engine.StartBuild(context.Background(), BuildRequest{ProjectID: project, Prompt: prompt, Callback: h.events.add})
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(h.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.dir, rel)) //nolint:gosec // test workspace
	require.NoError(t, err)
	return string(data)
}

func TestStartBuild_HappyPath(t *testing.T) {
	reg := newRegistry(t,
		llmAgent("A", registry.StateWrite("plan")),
		llmAgent("B", registry.StateWrite("code"), "A"),
	)
	r := newReplies().text("A", "step one\nstep two").text("B", `{"lang": "python"}`)
	h := newHarness(t, reg, r.completer())

	report, err := h.build(t, "hello")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A"}, {"B"}}, report.Phases)
	assert.Equal(t, domain.BuildStatusCompleted, report.Status)
	assert.Equal(t, domain.AutonomyReport{}, report.Autonomy)
	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.StatusOK, report.Results["A"].Status)
	assert.Equal(t, 7, report.Results["A"].Tokens)

	user, ok := r.seen("B")
	require.True(t, ok)
	assert.Contains(t, user, "--- Output from A ---\nstep one\nstep two")

	st, err := h.engine.GetState(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, []string{"step one", "step two"}, st.Plan)
	code, ok := st.Get("code")
	require.True(t, ok)
	assert.Equal(t, `{"lang": "python"}`, code)
	assert.Equal(t, domain.StatusOK, st.AgentResults["B"].Status)
	assert.Equal(t, domain.BuildStatusCompleted, st.LastBuild.Status)
	assert.Equal(t, report.RunID, st.LastBuild.RunID)
	require.NotNil(t, st.LastBuild.EndedAt)

	assert.Equal(t, "step one\nstep two", h.read(t, "outputs/A.md"))
	assert.Equal(t, `{"lang": "python"}`, h.read(t, "outputs/B.json"))

	evs := h.events.all()
	require.NotEmpty(t, evs)
	assert.Equal(t, domain.EventBuildStarted, evs[0].Kind)
	assert.Equal(t, domain.EventBuildCompleted, evs[len(evs)-1].Kind)
	assert.True(t, h.events.has(domain.EventAgentCompleted, "B"))
	assert.False(t, h.engine.Building(project))
}

func TestStartBuild_CriticalFailureAborts(t *testing.T) {
	planner := llmAgent("Planner", registry.StateWrite("plan"))
	planner.Criticality = domain.CriticalityCritical
	planner.Hints = map[domain.ErrorKind]string{domain.ErrorKindEmptyOutput: "Planning failed. Try a more specific prompt."}
	reg := newRegistry(t, planner, llmAgent("Stack Selector", registry.StateWrite("stack"), "Planner"))

	r := newReplies().text("Stack Selector", `{"frontend": "React"}`)
	h := newHarness(t, reg, r.completer())

	report, err := h.build(t, "")
	require.Error(t, err)
	require.ErrorIs(t, err, foundryerrors.ErrBuildAborted)

	aborted, ok := foundryerrors.AsBuildAborted(err)
	require.True(t, ok)
	assert.Equal(t, "Planner", aborted.Agent)
	assert.Equal(t, string(domain.ErrorKindEmptyOutput), aborted.Kind)
	assert.Equal(t, "Planning failed. Try a more specific prompt.", aborted.Remediation)
	statePath, err := h.store.Path(project)
	require.NoError(t, err)
	assert.Equal(t, statePath, aborted.StatePath)

	require.NotNil(t, report)
	assert.Equal(t, domain.BuildStatusAborted, report.Status)
	assert.Equal(t, domain.StatusFailed, report.Results["Planner"].Status)
	assert.NotContains(t, report.Results, "Stack Selector")
	_, ran := r.seen("Stack Selector")
	assert.False(t, ran)

	st := report.State
	require.NotNil(t, st)
	assert.Empty(t, st.Plan)
	assert.Empty(t, st.Stack)
	assert.Equal(t, domain.BuildStatusAborted, st.LastBuild.Status)
	assert.Equal(t, "Planner", st.LastBuild.AbortedBy)
	assert.Equal(t, domain.ErrorKindEmptyOutput, st.LastBuild.ErrorKind)
	assert.True(t, h.events.has(domain.EventBuildAborted, "Planner"))
}

func TestStartBuild_HighCriticalityFallback(t *testing.T) {
	const skeleton = "export default function App() { return <main>Loading</main>; }"
	frontend := llmAgent("Frontend Generation", registry.ArtifactWrite("src/App.jsx"))
	frontend.Criticality = domain.CriticalityHigh
	frontend.Timeout = 50 * time.Millisecond
	frontend.Fallback = func() string { return skeleton }
	reg := newRegistry(t, frontend, compositeAgent("Test Executor", "test_results", "Frontend Generation"))

	r := newReplies().
		fn("Frontend Generation", func(ctx context.Context, _ worker.Request) (*worker.Completion, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		text("Test Executor", "Reviewed the frontend.")
	h := newHarness(t, reg, r.completer())

	report, err := h.build(t, "todo app")
	require.NoError(t, err)

	fe := report.Results["Frontend Generation"]
	assert.Equal(t, domain.StatusFallback, fe.Status)
	assert.Equal(t, domain.ErrorKindTimeout, fe.ErrorKind)
	assert.Equal(t, skeleton, fe.Output)
	assert.Equal(t, skeleton, h.read(t, "src/App.jsx"))

	assert.Equal(t, domain.StatusOK, report.Results["Test Executor"].Status)
	user, ok := r.seen("Test Executor")
	require.True(t, ok)
	assert.Contains(t, user, skeleton)

	st := report.State
	assert.Equal(t, domain.StatusFallback, st.AgentResults["Frontend Generation"].Status)
	assert.Equal(t, "skipped", st.TestResults.Status)
	assert.Contains(t, st.TestResults.Output, "[REAL RUN] No test dir or package.json; skipped.")
	require.Len(t, st.Artifacts, 1)
	assert.Equal(t, "src/App.jsx", st.Artifacts[0].Path)
	assert.Empty(t, st.AgentErrors)
	assert.True(t, h.events.has(domain.EventAgentFallback, "Frontend Generation"))
}

func TestStartBuild_AutonomyTestRetry(t *testing.T) {
	reg := newRegistry(t, compositeAgent("Test Executor", "test_results"))
	h := newHarness(t, reg, newReplies().text("Test Executor", "Running the suite.").completer())
	h.write(t, "tests/test_app.py", "def test_ok():\n    assert False\n")
	h.runner.On("python -m pytest", testutil.CommandResult{Stdout: "1 failed, 2 passed", Code: 1})

	report, err := h.build(t, "api")
	require.NoError(t, err)

	out := report.Results["Test Executor"].Output
	assert.Contains(t, out, "[REAL RUN] pytest:\n")
	assert.Contains(t, out, "1 failed")

	assert.Equal(t, domain.AutonomyReport{RanTests: true, Iterations: 1}, report.Autonomy)
	assert.Equal(t, 2, h.runner.CountPrefix("python -m pytest"))
	assert.True(t, report.State.TestResults.AutonomyRetry)
	assert.Contains(t, report.State.TestResults.Output, "1 failed")
	assert.True(t, h.events.has(domain.EventAutonomyRetry, autonomy.TestAgent))
}

func TestStartBuild_AutonomyBothRetries(t *testing.T) {
	reg := newRegistry(t,
		compositeAgent("Test Executor", "test_results"),
		compositeAgent("Security Checker", "security_report"),
	)
	r := newReplies().text("Test Executor", "Ran tests.").text("Security Checker", "Scanned.")
	h := newHarness(t, reg, r.completer())
	h.write(t, "tests/test_app.py", "def test_ok():\n    pass\n")
	h.write(t, "server.py", "password = 'hunter2'\n")
	h.runner.On("python -m pytest", testutil.CommandResult{Stdout: "3 failed", Code: 1})
	h.runner.On("python -m bandit", testutil.CommandResult{Stdout: "Issue: [B105] Severity: High", Code: 1})

	report, err := h.build(t, "api")
	require.NoError(t, err)

	assert.Equal(t, domain.AutonomyReport{RanTests: true, RanSecurity: true, Iterations: 2}, report.Autonomy)
	assert.Equal(t, 2, h.runner.CountPrefix("python -m pytest"))
	assert.Equal(t, 2, h.runner.CountPrefix("python -m bandit"))
	assert.Contains(t, report.Results["Security Checker"].Output, "[REAL RUN] bandit:\n")
	assert.Contains(t, report.State.SecurityReport, "Severity: High")
	assert.True(t, h.events.has(domain.EventAutonomyRetry, autonomy.SecurityAgent))
}

func TestStartBuild_RecoversFromTruncatedState(t *testing.T) {
	reg := newRegistry(t, llmAgent("A", registry.StateWrite("plan")))
	h := newHarness(t, reg, newReplies().text("A", "only step").completer())
	h.write(t, "state.json", `{"plan": ["half`)

	st, err := h.engine.GetState(context.Background(), project)
	require.NoError(t, err)
	assert.Empty(t, st.Plan)
	assert.NotNil(t, st.AgentResults)
	assert.NotNil(t, st.ToolLog)

	report, err := h.build(t, "again")
	require.NoError(t, err)
	assert.Equal(t, []string{"only step"}, report.State.Plan)
}

func TestStartBuild_MediumFailureIsRecorded(t *testing.T) {
	reg := newRegistry(t,
		llmAgent("A", registry.StateWrite("requirements")),
		llmAgent("B", registry.StateWrite("decisions"), "A"),
	)
	r := newReplies().
		fn("A", func(context.Context, worker.Request) (*worker.Completion, error) {
			return nil, errors.New("upstream 503")
		}).
		text("B", `{"db": "sqlite"}`)
	h := newHarness(t, reg, r.completer())

	report, err := h.build(t, "crm")
	require.NoError(t, err)

	a := report.Results["A"]
	assert.Equal(t, domain.StatusFailed, a.Status)
	assert.Equal(t, domain.ErrorKindProviderError, a.ErrorKind)
	assert.Equal(t, registry.GenericHint("A"), a.Hint)

	rec, ok := report.State.AgentErrors["A"]
	require.True(t, ok)
	assert.Equal(t, domain.ErrorKindProviderError, rec.Kind)
	assert.Contains(t, rec.Message, "upstream 503")

	user, ok := r.seen("B")
	require.True(t, ok)
	assert.NotContains(t, user, "--- Output from A ---")
	assert.Equal(t, "sqlite", report.State.Decisions["db"])
	assert.True(t, h.events.has(domain.EventAgentFailed, "A"))
}

func TestStartBuild_LowFailureIsLogOnly(t *testing.T) {
	low := llmAgent("Memory Agent", registry.StateWrite("memory_summary"))
	low.Criticality = domain.CriticalityLow
	h := newHarness(t, newRegistry(t, low), newReplies().completer())

	report, err := h.build(t, "x")
	require.NoError(t, err)
	assert.Equal(t, domain.ErrorKindEmptyOutput, report.Results["Memory Agent"].ErrorKind)
	assert.Empty(t, report.State.AgentErrors)
	assert.Equal(t, domain.StatusFailed, report.State.AgentResults["Memory Agent"].Status)
}

func TestStartBuild_WorkerPanicIsInternalError(t *testing.T) {
	h := newHarness(t, newRegistry(t, llmAgent("A", registry.StateWrite("plan"))),
		newReplies().fn("A", func(context.Context, worker.Request) (*worker.Completion, error) {
			panic("nil map")
		}).completer())

	report, err := h.build(t, "x")
	require.NoError(t, err)
	res := report.Results["A"]
	assert.Equal(t, domain.ErrorKindInternalError, res.ErrorKind)
	assert.Contains(t, res.Error, "worker panic: nil map")
}

func TestStartBuild_RejectsConcurrentBuild(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	r := newReplies().fn("A", func(context.Context, worker.Request) (*worker.Completion, error) {
		once.Do(func() { close(entered) })
		<-release
		return &worker.Completion{Text: "done"}, nil
	})
	h := newHarness(t, newRegistry(t, llmAgent("A", registry.StateWrite("plan"))), r.completer())

	done := make(chan error, 1)
	go func() {
		_, err := h.build(t, "first")
		done <- err
	}()
	<-entered
	assert.True(t, h.engine.Building(project))

	_, err := h.build(t, "second")
	require.ErrorIs(t, err, foundryerrors.ErrBuildInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.engine.Building(project))
}

func TestStartBuild_RequestErrors(t *testing.T) {
	h := newHarness(t, newRegistry(t, llmAgent("A", registry.StateWrite("plan"))), newReplies().completer())

	t.Run("unsafe project id", func(t *testing.T) {
		report, err := h.engine.StartBuild(context.Background(), BuildRequest{ProjectID: "../escape", Prompt: "x"})
		require.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := h.engine.StartBuild(ctx, BuildRequest{ProjectID: project, Prompt: "x"})
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, report)
	})
}

func TestStartBuild_ToolAgents(t *testing.T) {
	reg := newRegistry(t,
		llmAgent("Frontend Generation", registry.ArtifactWrite("src/App.jsx")),
		llmAgent("Database Agent", registry.ArtifactWrite("schema.sql")),
		toolAgent(FileToolAgent, "Frontend Generation", "Database Agent"),
		toolAgent(DatabaseToolAgent, "Database Agent"),
		toolAgent(DeploymentToolAgent, FileToolAgent),
		toolAgent(BrowserToolAgent),
		toolAgent(APIToolAgent),
	)
	r := newReplies().
		text("Frontend Generation", "```jsx\nexport default function App() {}\n```").
		text("Database Agent", "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);")
	h := newHarness(t, reg, r.completer())
	h.runner.On("npx vercel", testutil.CommandResult{Stdout: "Production: https://demo.vercel.app"})

	report, err := h.build(t, "inventory tracker")
	require.NoError(t, err)

	assert.Equal(t, "Real File Tool Agent: wrote 2 file(s): src/App.jsx, schema.sql.", report.Results[FileToolAgent].Output)
	assert.Equal(t, "export default function App() {}", h.read(t, "src/App.jsx"))
	assert.Equal(t, "Real Database Tool Agent: applied schema to SQLite at app.db.", report.Results[DatabaseToolAgent].Output)
	assert.FileExists(t, filepath.Join(h.dir, "app.db"))
	assert.Equal(t, "Real Deployment Tool Agent: deployed. URL: https://demo.vercel.app.", report.Results[DeploymentToolAgent].Output)
	assert.Equal(t, "Real Browser Tool Agent: no URL in context; skipped (real agent ran, no input).", report.Results[BrowserToolAgent].Output)
	assert.Equal(t, "Real API Tool Agent: no API URL in context; skipped (real agent ran, no input).", report.Results[APIToolAgent].Output)

	var paths []string
	for _, a := range report.State.Artifacts {
		paths = append(paths, a.Path)
	}
	assert.ElementsMatch(t, []string{"src/App.jsx", "schema.sql", "app.db"}, paths)

	_, called := r.seen(FileToolAgent)
	assert.False(t, called, "tool agents never call the provider")
}

func TestStartBuild_ToolAgentSkips(t *testing.T) {
	reg := newRegistry(t, toolAgent(DatabaseToolAgent), toolAgent(DeploymentToolAgent))
	h := newHarness(t, reg, newReplies().completer())

	report, err := h.build(t, "x")
	require.NoError(t, err)
	assert.Equal(t, "Real Database Tool Agent: no schema from Database Agent; skipped.", report.Results[DatabaseToolAgent].Output)
	assert.Equal(t, "Real Deployment Tool Agent: no files in workspace (run File Tool Agent first); skipped.",
		report.Results[DeploymentToolAgent].Output)
	assert.Empty(t, h.runner.Calls())
}

func TestStartBuild_PostSteps(t *testing.T) {
	audit := compositeAgent("Dependency Audit Agent", "dependency_audit")
	audit.Effect.Command = []string{"npm", "audit"}
	bundle := compositeAgent("Bundle Analyzer Agent", "bundle_report")
	bundle.Effect.Command = []string{"npx", "source-map-explorer", "dist/*.js"}
	reg := newRegistry(t,
		compositeAgent("UX Auditor", "ux_report"),
		compositeAgent("Performance Analyzer", "performance_report"),
		audit,
		bundle,
	)
	r := newReplies().
		text("UX Auditor", "UX looks fine.").
		text("Performance Analyzer", "Fast enough.").
		text("Dependency Audit Agent", "Audit plan.").
		text("Bundle Analyzer Agent", "Bundle plan.")
	h := newHarness(t, reg, r.completer())
	h.write(t, "src/Nav.jsx", `<nav aria-label="main"></nav>`)
	h.write(t, "src/Plain.jsx", `<div></div>`)
	h.write(t, "server.py", "a = 1\nb = 2\nc = 3\n")
	h.write(t, "package.json", `{}`)
	h.runner.On("npm audit", testutil.CommandResult{Stdout: "found 0 vulnerabilities"})

	report, err := h.build(t, "x")
	require.NoError(t, err)

	st := report.State
	assert.Equal(t, "UX looks fine.\n\n[REAL RUN] Files with ARIA/role: Nav.jsx", st.UXReport)
	assert.Equal(t, "Fast enough.\n\n[REAL RUN] Python lines in workspace: 3", st.PerformanceReport)
	assert.Contains(t, st.DependencyAudit, "found 0 vulnerabilities")
	assert.Contains(t, report.Results["Dependency Audit Agent"].Output, "[REAL RUN] npm audit:")
	assert.Equal(t, "Bundle plan.", st.BundleReport, "no dist/ means no bundle run")
	assert.Zero(t, h.runner.CountPrefix("npx source-map-explorer"))
}

type stubFinder struct{ prefix string }

func (f stubFinder) Find(_ context.Context, query string) (string, error) {
	return f.prefix + strings.ReplaceAll(query, " ", "-"), nil
}

func TestStartBuild_SpecialEffects(t *testing.T) {
	reg := newRegistry(t,
		llmAgent(ImageGeneration, registry.Special()),
		llmAgent(VideoGeneration, registry.Special()),
		llmAgent(ScrapingAgent, registry.Special()),
	)
	r := newReplies().
		text(ImageGeneration, `{"hero": "mountain sunrise", "logo": ""}`).
		text(VideoGeneration, "no json here").
		text(ScrapingAgent, "Sources:\nhttps://a.example\nnot a url\nhttps://b.example\nhttps://a.example")
	h := newHarness(t, reg, r.completer(), WithMedia(stubFinder{prefix: "https://img.example/"}, nil))

	report, err := h.build(t, "bakery site")
	require.NoError(t, err)

	st := report.State
	assert.Equal(t, map[string]string{"hero": "https://img.example/mountain-sunrise"}, st.Images)
	assert.Empty(t, st.Videos)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, st.ScrapeURLs)
	assert.Equal(t, domain.StatusOK, report.Results[VideoGeneration].Status)
}

func TestMediaRequests_DefaultsFromPrompt(t *testing.T) {
	got := mediaRequests("not json", "bakery site", defaultImageRoles, "image")
	assert.Equal(t, map[string]string{
		"hero":      "hero image for bakery site",
		"feature_1": "feature 1 image for bakery site",
		"feature_2": "feature 2 image for bakery site",
	}, got)
}

func TestNew_ConfigErrors(t *testing.T) {
	cyclic := func(t *testing.T) *registry.Registry {
		return newRegistry(t,
			llmAgent("A", registry.StateWrite("plan"), "B"),
			llmAgent("B", registry.StateWrite("stack"), "A"),
		)
	}
	tests := []struct {
		name string
		reg  func(t *testing.T) *registry.Registry
		want error
	}{
		{"cycle", cyclic, foundryerrors.ErrCycleDetected},
		{"unknown dependency", func(t *testing.T) *registry.Registry {
			return newRegistry(t, llmAgent("A", registry.StateWrite("plan"), "Ghost"))
		}, foundryerrors.ErrUnknownDependency},
		{"missing effect", func(t *testing.T) *registry.Registry {
			return newRegistry(t, llmAgent("A", registry.Effect{}))
		}, foundryerrors.ErrMissingEffect},
		{"tool agent without worker", func(t *testing.T) *registry.Registry {
			return newRegistry(t, toolAgent("Mystery Tool"))
		}, foundryerrors.ErrNoWorker},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			layout, err := workspace.NewLayout(t.TempDir())
			require.NoError(t, err)
			store := state.NewFileStore(layout, zerolog.Nop())
			exec := tool.NewExecutor(layout, store, tool.Config{}, zerolog.Nop())

			eng, err := New(tc.reg(t), store, exec, nil, DefaultConfig(), zerolog.Nop())
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, foundryerrors.ErrConfig)
			assert.Nil(t, eng)
		})
	}
}

func TestNew_CustomToolFunc(t *testing.T) {
	reg := newRegistry(t, toolAgent("Mystery Tool"))
	called := false
	h := newHarness(t, reg, nil, WithToolFunc("Mystery Tool", func(_ context.Context, env ToolEnv) (ToolResult, error) {
		called = true
		return ToolResult{Output: "ran for " + env.ProjectID}, nil
	}))

	report, err := h.build(t, "x")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ran for demo", report.Results["Mystery Tool"].Output)
}

func TestStartBuild_SiblingsDoNotSeeEachOther(t *testing.T) {
	reg := newRegistry(t,
		llmAgent("A", registry.StateWrite("plan")),
		llmAgent("B", registry.StateWrite("b_notes"), "A"),
		llmAgent("C", registry.StateWrite("c_notes"), "A"),
	)
	r := newReplies().text("A", "root plan").text("B", "sibling-b output").text("C", "sibling-c output")

	// One worker at a time: B settles before C starts.
	cfg := DefaultConfig()
	cfg.MaxParallel = 1
	h := newHarnessWithConfig(t, reg, r.completer(), cfg)

	report, err := h.build(t, "app")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B", "C"}}, report.Phases)

	for agent, sibling := range map[string]string{"B": "C", "C": "B"} {
		user, ok := r.seen(agent)
		require.True(t, ok, agent)
		assert.Contains(t, user, "--- Output from A ---")
		assert.NotContains(t, user, "Output from "+sibling)
		assert.NotContains(t, user, "sibling-"+strings.ToLower(sibling))
	}
}

func TestStartBuild_MaxParallelBoundsWorkers(t *testing.T) {
	names := []string{"W1", "W2", "W3", "W4"}
	ds := make([]*registry.Descriptor, 0, len(names))
	for _, n := range names {
		ds = append(ds, llmAgent(n, registry.StateWrite(strings.ToLower(n))))
	}

	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	work := func(context.Context, worker.Request) (*worker.Completion, error) {
		mu.Lock()
		current++
		peak = max(peak, current)
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		current--
		mu.Unlock()
		return &worker.Completion{Text: "done"}, nil
	}
	r := newReplies()
	for _, n := range names {
		r.fn(n, work)
	}

	tests := []struct {
		name     string
		parallel int
	}{
		{"serial", 1},
		{"two at a time", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu.Lock()
			peak = 0
			mu.Unlock()

			cfg := DefaultConfig()
			cfg.MaxParallel = tt.parallel
			h := newHarnessWithConfig(t, newRegistry(t, ds...), r.completer(), cfg)

			report, err := h.build(t, "app")
			require.NoError(t, err)
			require.Len(t, report.Results, len(names))

			mu.Lock()
			defer mu.Unlock()
			assert.LessOrEqual(t, peak, tt.parallel)
			assert.Positive(t, peak)
		})
	}
}

func TestStartBuild_CancelDuringPhase(t *testing.T) {
	const skeleton = "export default function App() { return null; }"

	blockUntilCanceled := func(entered chan<- struct{}) func(context.Context, worker.Request) (*worker.Completion, error) {
		var once sync.Once
		return func(ctx context.Context, _ worker.Request) (*worker.Completion, error) {
			once.Do(func() { close(entered) })
			<-ctx.Done()
			return nil, ctx.Err()
		}
	}

	startCanceled := func(t *testing.T, h *harness, entered <-chan struct{}) (*BuildReport, error) {
		t.Helper()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-entered
			cancel()
		}()
		return h.engine.StartBuild(ctx, BuildRequest{ProjectID: project, Prompt: "app", Callback: h.events.add})
	}

	t.Run("high agent in flight gets no fallback", func(t *testing.T) {
		planner := llmAgent("Planner", registry.StateWrite("plan"))
		planner.Criticality = domain.CriticalityCritical
		frontend := llmAgent("Frontend Generation", registry.ArtifactWrite("src/App.jsx"), "Planner")
		frontend.Criticality = domain.CriticalityHigh
		frontend.Fallback = func() string { return skeleton }
		reg := newRegistry(t, planner, frontend, llmAgent("Docs", registry.StateWrite("docs"), "Frontend Generation"))

		entered := make(chan struct{})
		r := newReplies().text("Planner", "step one").fn("Frontend Generation", blockUntilCanceled(entered))
		h := newHarness(t, reg, r.completer())

		report, err := startCanceled(t, h, entered)
		require.ErrorIs(t, err, context.Canceled)
		_, isAbort := foundryerrors.AsBuildAborted(err)
		assert.False(t, isAbort)

		require.NotNil(t, report)
		assert.Equal(t, domain.BuildStatusCanceled, report.Status)
		assert.Equal(t, domain.StatusOK, report.Results["Planner"].Status)
		assert.Equal(t, domain.StatusFailed, report.Results["Frontend Generation"].Status)
		assert.NotContains(t, report.Results, "Docs")
		_, ran := r.seen("Docs")
		assert.False(t, ran)

		assert.NoFileExists(t, filepath.Join(h.dir, "src", "App.jsx"))
		assert.False(t, h.events.has(domain.EventAgentFallback, "Frontend Generation"))

		st := report.State
		require.NotNil(t, st)
		assert.Equal(t, []string{"step one"}, st.Plan)
		assert.Equal(t, domain.StatusFailed, st.AgentResults["Frontend Generation"].Status)
		assert.Empty(t, st.AgentErrors)
		assert.Equal(t, domain.BuildStatusCanceled, st.LastBuild.Status)
		assert.Empty(t, st.LastBuild.AbortedBy)
	})

	t.Run("critical agent in flight is not an abort", func(t *testing.T) {
		planner := llmAgent("Planner", registry.StateWrite("plan"))
		planner.Criticality = domain.CriticalityCritical
		reg := newRegistry(t, planner, llmAgent("Stack Selector", registry.StateWrite("stack"), "Planner"))

		entered := make(chan struct{})
		r := newReplies().fn("Planner", blockUntilCanceled(entered))
		h := newHarness(t, reg, r.completer())

		report, err := startCanceled(t, h, entered)
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, foundryerrors.ErrBuildAborted)

		assert.Equal(t, domain.BuildStatusCanceled, report.Status)
		assert.False(t, h.events.has(domain.EventBuildAborted, "Planner"))
		assert.Equal(t, domain.BuildStatusCanceled, report.State.LastBuild.Status)
		assert.False(t, h.engine.Building(project))
	})
}
