package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/logging"
)

// record appends the invocation to tool_log and applies the capture key.
// It uses a detached context so a canceled build still logs what ran.
func (e *Executor) record(ctx context.Context, projectID string, inv *domain.ToolInvocation, captureKey string) {
	entry := logEntry(inv)
	_, err := e.store.Mutate(ctxutil.Detached(ctx), projectID, func(s *domain.ProjectState) error {
		s.ToolLog = appendToolLog(s.ToolLog, entry, e.cfg.ToolLogMax)
		if captureKey == "" {
			return nil
		}
		return s.Set(captureKey, CaptureValue(captureKey, inv, e.cfg.ReportMaxBytes))
	})
	if err != nil {
		e.logger.Error().Err(err).
			Str("project_id", projectID).
			Str("kind", string(inv.Kind)).
			Msg("failed to record tool invocation")
	}
}

// CaptureValue shapes an invocation report for a state key. test_results
// holds a structured record; every other key holds the report text.
func CaptureValue(key string, inv *domain.ToolInvocation, limit int) any {
	report := truncate(logging.FilterSensitiveValue(inv.Report()), limit)
	if key != "test_results" {
		return report
	}
	ended := inv.EndedAt
	return domain.TestResults{
		Output:    report,
		Command:   inv.Arguments["command"],
		ExitCode:  inv.ExitCode,
		Status:    string(inv.Status),
		UpdatedAt: &ended,
	}
}

func logEntry(inv *domain.ToolInvocation) domain.ToolLogEntry {
	return domain.ToolLogEntry{
		Kind:          string(inv.Kind),
		Agent:         inv.Agent,
		Target:        target(inv),
		OutputPreview: truncate(logging.FilterSensitiveValue(inv.Report()), constants.ToolLogPreviewBytes),
		ExitCode:      inv.ExitCode,
		Status:        inv.Status,
		ErrorKind:     inv.ErrorKind,
		StartedAt:     inv.StartedAt,
		EndedAt:       inv.EndedAt,
	}
}

// target is the one-line description of what the invocation touched.
func target(inv *domain.ToolInvocation) string {
	for _, k := range []string{"command", "url", "path", "script"} {
		if v := inv.Arguments[k]; v != "" {
			if k == "url" && inv.Arguments["method"] != "" {
				return strings.ToUpper(inv.Arguments["method"]) + " " + v
			}
			return v
		}
	}
	return ""
}

// appendToolLog inserts entry ordered by start time and folds the oldest
// entries into a single summary once the log exceeds limit.
func appendToolLog(log []domain.ToolLogEntry, entry domain.ToolLogEntry, limit int) []domain.ToolLogEntry {
	i := sort.Search(len(log), func(i int) bool {
		return log[i].Kind != domain.ToolLogSummaryKind && log[i].StartedAt.After(entry.StartedAt)
	})
	log = append(log, domain.ToolLogEntry{})
	copy(log[i+1:], log[i:])
	log[i] = entry

	if limit <= 1 || len(log) <= limit {
		return log
	}

	var summary domain.ToolLogEntry
	rest := log
	if log[0].Kind == domain.ToolLogSummaryKind {
		summary = log[0]
		rest = log[1:]
	} else {
		summary = domain.ToolLogEntry{Kind: domain.ToolLogSummaryKind, StartedAt: log[0].StartedAt}
	}

	// Keep limit-1 detailed entries after the summary.
	fold := len(rest) - (limit - 1)
	for _, old := range rest[:fold] {
		summary.Count++
		if summary.StartedAt.IsZero() || old.StartedAt.Before(summary.StartedAt) {
			summary.StartedAt = old.StartedAt
		}
		if old.EndedAt.After(summary.EndedAt) {
			summary.EndedAt = old.EndedAt
		}
	}
	summary.OutputPreview = fmt.Sprintf("%d earlier invocations rolled up", summary.Count)

	out := make([]domain.ToolLogEntry, 0, limit)
	out = append(out, summary)
	return append(out, rest[fold:]...)
}
