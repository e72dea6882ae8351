package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/domain"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "-"},
		{"ok", "Ok"},
		{"provider_error", "Provider Error"},
		{"critical", "Critical"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Label(tc.in))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "850ms", FormatDuration(850))
	assert.Equal(t, "3.2s", FormatDuration(3200))
	assert.Equal(t, "2m05s", FormatDuration(125000))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", Preview("a\n b\t c", 10))
	assert.Equal(t, "abcd…", Preview("abcdefgh", 5))
}

func TestHasColorSupport(t *testing.T) {
	t.Setenv("TERM", "xterm")
	t.Setenv("NO_COLOR", "")
	assert.False(t, HasColorSupport(), "NO_COLOR set to empty still disables color")
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "✓", StatusIcon(domain.StatusOK))
	assert.Equal(t, "⚠", StatusIcon(domain.StatusFallback))
	assert.Equal(t, "✗", StatusIcon(domain.StatusFailed))
	assert.Equal(t, ColorError, StatusColor(domain.StatusFailed))
	assert.Equal(t, ColorError, BuildStatusColor(domain.BuildStatusAborted))
}

func TestRenderPlan(t *testing.T) {
	var buf bytes.Buffer
	RenderPlan(&buf, [][]string{{"Planner"}, {"Frontend Generation", "Backend Generation"}})
	out := buf.String()
	assert.Contains(t, out, "PHASE")
	assert.Contains(t, out, "Planner")
	assert.Contains(t, out, "Frontend Generation, Backend Generation")
}

func TestRenderResults_SkipsUnreached(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, []string{"Planner", "Stack Selector"}, map[string]*domain.ExecutionResult{
		"Planner": {Agent: "Planner", Status: domain.StatusFailed, ErrorKind: domain.ErrorKindTimeout, DurationMs: 1200},
	})
	out := buf.String()
	assert.Contains(t, out, "Planner")
	assert.Contains(t, out, "Timeout")
	assert.NotContains(t, out, "Stack Selector")
	assert.Contains(t, out, "0 ok / 0 fallback / 1 failed")
}

func TestRenderAgents_OrdersByPhase(t *testing.T) {
	var buf bytes.Buffer
	RenderAgents(&buf, []AgentRow{
		{Name: "Frontend Generation", Phase: 2, Criticality: domain.CriticalityHigh},
		{Name: "Planner", Phase: 0, Criticality: domain.CriticalityCritical},
	})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Planner")), bytes.Index(buf.Bytes(), []byte("Frontend Generation")))
	assert.Contains(t, out, "Critical")
}

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf, FormatJSON)
	out.Success("ignored")
	out.Info("ignored")
	require.NoError(t, out.JSON(map[string]int{"n": 1}))
	out.Error(errors.New("boom"))
	assert.NotContains(t, buf.String(), "ignored")
	assert.Contains(t, buf.String(), `"n": 1`)
	assert.Contains(t, buf.String(), `"error": "boom"`)

	buf.Reset()
	NewOutput(&buf, FormatText).Success("built")
	assert.Contains(t, buf.String(), "built")
}

func TestTTYOutput_Event(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.Event
		want []string
	}{
		{"phase", domain.Event{Kind: domain.EventPhaseStarted, Fields: map[string]any{"phase": 2}}, []string{"phase 2"}},
		{"completed", domain.Event{Kind: domain.EventAgentCompleted, Agent: "Planner"}, []string{"Planner"}},
		{"fallback", domain.Event{Kind: domain.EventAgentFallback, Agent: "Frontend"}, []string{"Frontend"}},
		{"failed", domain.Event{Kind: domain.EventAgentFailed, Agent: "Docs", Message: "provider down"}, []string{"Docs", "provider down"}},
		{"retry", domain.Event{Kind: domain.EventAutonomyRetry, Message: "tests failed, retrying"}, []string{"tests failed, retrying"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewTTYOutput(&buf).Event(tc.ev)
			for _, w := range tc.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}

	t.Run("silent kinds", func(t *testing.T) {
		var buf bytes.Buffer
		out := NewTTYOutput(&buf)
		out.Event(domain.Event{Kind: domain.EventBuildStarted})
		out.Event(domain.Event{Kind: domain.EventAgentStarted, Agent: "Planner"})
		out.Event(domain.Event{Kind: "unknown"})
		assert.Empty(t, buf.String())
	})
}

func TestOutput_Detail(t *testing.T) {
	var buf bytes.Buffer
	tty := NewTTYOutput(&buf)
	tty.Detail("state: /tmp/x.json")
	tty.Detail("")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.True(t, strings.HasPrefix(buf.String(), "  "))
	assert.Contains(t, buf.String(), "state: /tmp/x.json")

	buf.Reset()
	js := NewOutput(&buf, FormatJSON)
	js.Detail("state: /tmp/x.json")
	js.Event(domain.Event{Kind: domain.EventAgentCompleted, Agent: "Planner"})
	assert.Empty(t, buf.String())
}
