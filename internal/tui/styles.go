// Package tui renders foundry output for terminals: styled status lines,
// go-pretty tables for plans, agents, and build results, and a plain JSON
// mode for scripts.
//
// All colors use lipgloss.AdaptiveColor for light/dark terminal support.
// Call CheckNoColor at the start of a command to honor NO_COLOR and
// TERM=dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/foundry/internal/domain"
)

//nolint:gochecknoglobals // Package-level palette
var (
	// ColorPrimary is blue, for active states and headings.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// CheckNoColor drops to the ASCII color profile when colors are disabled.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (to any value) or
// TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates the common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// StatusColor returns the semantic color for an agent status.
func StatusColor(s domain.Status) lipgloss.AdaptiveColor {
	switch s {
	case domain.StatusOK:
		return ColorSuccess
	case domain.StatusFallback:
		return ColorWarning
	case domain.StatusFailed:
		return ColorError
	default:
		return ColorMuted
	}
}

// StatusIcon returns the icon shown next to an agent status.
func StatusIcon(s domain.Status) string {
	switch s {
	case domain.StatusOK:
		return "✓"
	case domain.StatusFallback:
		return "⚠"
	case domain.StatusFailed:
		return "✗"
	default:
		return "·"
	}
}

// BuildStatusColor returns the semantic color for a build status.
func BuildStatusColor(s domain.BuildStatus) lipgloss.AdaptiveColor {
	switch s {
	case domain.BuildStatusCompleted:
		return ColorSuccess
	case domain.BuildStatusRunning:
		return ColorPrimary
	case domain.BuildStatusCanceled:
		return ColorWarning
	case domain.BuildStatusAborted:
		return ColorError
	default:
		return ColorMuted
	}
}

// Label title-cases an enum value for display: "provider_error" becomes
// "Provider Error".
func Label(value string) string {
	if value == "" {
		return "-"
	}
	b := []byte(value)
	for i, c := range b {
		if c == '_' {
			b[i] = ' '
		}
	}
	return cases.Title(language.English).String(string(b))
}

// RenderStatus renders icon and label of an agent status in its color.
func RenderStatus(s domain.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(StatusIcon(s) + " " + Label(string(s)))
}
