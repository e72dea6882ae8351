package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrz1836/foundry/internal/domain"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output is where commands report to the user. Text output is styled for a
// terminal; JSON output carries only documents and errors so it can be piped.
type Output interface {
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)

	// Detail prints a secondary line under the previous status line.
	Detail(msg string)

	// Event reports build progress. Events without a progress line are skipped.
	Event(ev domain.Event)

	JSON(v any) error
}

// TTYOutput writes styled lines.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a new TTYOutput.
func NewTTYOutput(w io.Writer) *TTYOutput {
	return &TTYOutput{w: w, styles: NewOutputStyles()}
}

func (o *TTYOutput) println(s string) {
	_, _ = fmt.Fprintln(o.w, s)
}

// Success prints a line marked with the ok icon.
func (o *TTYOutput) Success(msg string) {
	o.println(o.styles.Success.Render(StatusIcon(domain.StatusOK) + " " + msg))
}

// Error prints a line marked with the failed icon.
func (o *TTYOutput) Error(err error) {
	o.println(o.styles.Error.Render(StatusIcon(domain.StatusFailed) + " " + err.Error()))
}

// Warning prints a line marked with the fallback icon.
func (o *TTYOutput) Warning(msg string) {
	o.println(o.styles.Warning.Render(StatusIcon(domain.StatusFallback) + " " + msg))
}

// Info prints a plain informational line.
func (o *TTYOutput) Info(msg string) {
	o.println(o.styles.Info.Render(msg))
}

// Detail prints an indented, muted line.
func (o *TTYOutput) Detail(msg string) {
	if msg == "" {
		return
	}
	o.println("  " + o.styles.Dim.Render(msg))
}

// Event prints one line per phase start, agent settlement, and autonomy retry.
func (o *TTYOutput) Event(ev domain.Event) {
	switch ev.Kind {
	case domain.EventPhaseStarted:
		o.println(o.styles.Info.Render(fmt.Sprintf("▸ phase %v", ev.Fields["phase"])))
	case domain.EventAgentCompleted:
		o.println("  " + RenderStatus(domain.StatusOK) + " " + ev.Agent)
	case domain.EventAgentFallback:
		o.println("  " + RenderStatus(domain.StatusFallback) + " " + ev.Agent)
	case domain.EventAgentFailed:
		o.println("  " + RenderStatus(domain.StatusFailed) + " " + ev.Agent + o.styles.Dim.Render(" "+ev.Message))
	case domain.EventAutonomyRetry:
		o.println(o.styles.Warning.Render("↻ " + ev.Message))
	case domain.EventBuildStarted, domain.EventAgentStarted, domain.EventBuildAborted, domain.EventBuildCompleted:
	}
}

// JSON writes v as an indented document.
func (o *TTYOutput) JSON(v any) error {
	return writeJSON(o.w, v)
}

// JSONOutput writes documents and errors only.
type JSONOutput struct {
	w io.Writer
}

// NewJSONOutput creates a new JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w}
}

// Error writes {"error": "..."}.
func (o *JSONOutput) Error(err error) {
	_ = writeJSON(o.w, map[string]string{"error": err.Error()})
}

// JSON writes v as an indented document.
func (o *JSONOutput) JSON(v any) error {
	return writeJSON(o.w, v)
}

// Status lines and progress are dropped; the final document carries them.
func (o *JSONOutput) Success(string) {}
func (o *JSONOutput) Warning(string) {}
func (o *JSONOutput) Info(string) {}
func (o *JSONOutput) Detail(string) {}
func (o *JSONOutput) Event(domain.Event) {}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// NewOutput returns the Output for format; anything but json is text.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}
