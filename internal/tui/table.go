package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mrz1836/foundry/internal/domain"
)

// AgentRow is one line of the agents table.
type AgentRow struct {
	Name        string
	Phase       int
	Criticality domain.Criticality
	Effect      string
	Timeout     time.Duration
	DependsOn   []string
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatUpper
	return tw
}

// RenderPlan writes one row per phase with its agents.
func RenderPlan(w io.Writer, phases [][]string) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Phase", "Agents", "Count"})
	total := 0
	for i, phase := range phases {
		tw.AppendRow(table.Row{i + 1, strings.Join(phase, ", "), len(phase)})
		total += len(phase)
	}
	tw.AppendFooter(table.Row{"", "total", total})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	tw.Render()
}

// RenderAgents writes the agents table, ordered by phase then name.
func RenderAgents(w io.Writer, rows []AgentRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Phase != rows[j].Phase {
			return rows[i].Phase < rows[j].Phase
		}
		return rows[i].Name < rows[j].Name
	})
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Agent", "Phase", "Criticality", "Effect", "Timeout", "Depends On"})
	for _, r := range rows {
		deps := "-"
		if len(r.DependsOn) > 0 {
			deps = strings.Join(r.DependsOn, ", ")
		}
		tw.AppendRow(table.Row{r.Name, r.Phase + 1, Label(string(r.Criticality)), r.Effect, r.Timeout.String(), deps})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 6, WidthMax: 60}})
	tw.Render()
}

// RenderResults writes one row per agent in order. Agents without a
// result (not reached before an abort) are skipped.
func RenderResults(w io.Writer, order []string, results map[string]*domain.ExecutionResult) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Agent", "Status", "Error", "Duration", "Tokens"})
	counts := map[domain.Status]int{}
	for _, name := range order {
		res, ok := results[name]
		if !ok {
			continue
		}
		counts[res.Status]++
		tw.AppendRow(table.Row{name, RenderStatus(res.Status), Label(string(res.ErrorKind)),
			FormatDuration(res.DurationMs), res.Tokens})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d ok / %d fallback / %d failed",
		counts[domain.StatusOK], counts[domain.StatusFallback], counts[domain.StatusFailed]), "", "", ""})
	tw.Render()
}

// RenderOutcomes writes the agent_results of a persisted state.
func RenderOutcomes(w io.Writer, outcomes map[string]domain.AgentOutcome) {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Agent", "Status", "Error", "Duration", "Preview"})
	for _, name := range names {
		o := outcomes[name]
		tw.AppendRow(table.Row{name, RenderStatus(o.Status), Label(string(o.ErrorKind)),
			FormatDuration(o.DurationMs), Preview(o.OutputPreview, 60)})
	}
	tw.Render()
}

// FormatDuration renders milliseconds compactly: "850ms", "3.2s", "2m05s".
func FormatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", ms)
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// Preview flattens s to one line of at most n runes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
