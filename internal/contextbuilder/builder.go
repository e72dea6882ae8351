// Package contextbuilder assembles the prompt context handed to an agent
// from the user prompt and the outputs of agents that already ran.
//
// Build is pure: the same inputs always yield the same bytes, and the
// result never exceeds the configured character budget.
package contextbuilder

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mrz1836/foundry/internal/constants"
)

// TruncatedMarker prefixes a producer output that lost its head to the budget.
const TruncatedMarker = "...[truncated]\n"

const (
	separator      = "\n\n"
	memoryHeader   = "--- Memory summary ---"
	memoryLineMax  = 160
	minSectionBody = 40
)

// Config bounds context assembly. Sizes are in characters (runes).
type Config struct {
	Budget    int
	PromptMax int
}

// DefaultConfig returns the stock budget.
func DefaultConfig() Config {
	return Config{Budget: constants.ContextBudget, PromptMax: constants.PromptMaxChars}
}

// Input is everything Build looks at.
type Input struct {
	// Agent is the agent the context is for. Its own output is never included.
	Agent string

	// DependsOn lists the agents whose outputs are included in full, in order.
	DependsOn []string

	// Prompt is the user's build prompt.
	Prompt string

	// Outputs holds the outputs of agents that finished earlier in the run.
	Outputs map[string]string
}

// Header returns the tag placed above a producer's output.
func Header(producer string) string {
	return fmt.Sprintf("--- Output from %s ---", producer)
}

// Build returns the context for in.Agent.
func Build(in Input, cfg Config) string {
	if cfg.Budget <= 0 {
		cfg.Budget = constants.ContextBudget
	}
	if cfg.PromptMax <= 0 {
		cfg.PromptMax = constants.PromptMaxChars
	}

	b := &budgeted{limit: cfg.Budget}
	b.add(head(strings.TrimSpace(in.Prompt), min(cfg.PromptMax, cfg.Budget)))

	deps := dependencies(in)
	b.addDependencies(deps, in.Outputs)
	b.addMemory(memoryLines(in, deps))

	return b.String()
}

// dependencies returns the declared dependencies that produced output,
// without duplicates, in declaration order.
func dependencies(in Input) []string {
	var deps []string
	for _, name := range in.DependsOn {
		if name == in.Agent || slices.Contains(deps, name) {
			continue
		}
		if strings.TrimSpace(in.Outputs[name]) == "" {
			continue
		}
		deps = append(deps, name)
	}
	return deps
}

// memoryLines condenses non-dependency outputs to one line each, sorted by
// producer so map iteration order never leaks into the result.
func memoryLines(in Input, deps []string) []string {
	names := make([]string, 0, len(in.Outputs))
	for name, out := range in.Outputs {
		if name == in.Agent || slices.Contains(deps, name) || strings.TrimSpace(out) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		first, _, _ := strings.Cut(strings.TrimSpace(in.Outputs[name]), "\n")
		lines = append(lines, head(fmt.Sprintf("- %s: %s", name, strings.TrimSpace(first)), memoryLineMax))
	}
	return lines
}

// budgeted joins sections with separator while tracking rune usage.
type budgeted struct {
	parts []string
	used  int
	limit int
}

func (b *budgeted) cost(section string) int {
	n := utf8.RuneCountInString(section)
	if len(b.parts) > 0 {
		n += len(separator)
	}
	return n
}

func (b *budgeted) remaining() int {
	return b.limit - b.used
}

func (b *budgeted) add(section string) bool {
	if section == "" {
		return false
	}
	c := b.cost(section)
	if c > b.remaining() {
		return false
	}
	b.parts = append(b.parts, section)
	b.used += c
	return true
}

// addDependencies shares the remaining budget fairly: short outputs are
// placed whole and their unused share flows to the longer ones. Sections
// keep declaration order regardless of placement order.
func (b *budgeted) addDependencies(deps []string, outputs map[string]string) {
	if len(deps) == 0 {
		return
	}
	bodies := make(map[string]string, len(deps))
	bySize := slices.Clone(deps)
	sort.SliceStable(bySize, func(i, j int) bool {
		return utf8.RuneCountInString(strings.TrimSpace(outputs[bySize[i]])) <
			utf8.RuneCountInString(strings.TrimSpace(outputs[bySize[j]]))
	})

	avail := b.remaining()
	for i, name := range bySize {
		share := avail / (len(bySize) - i)
		overhead := utf8.RuneCountInString(Header(name)) + 1 + len(separator)
		body := strings.TrimSpace(outputs[name])
		room := share - overhead
		if utf8.RuneCountInString(body) > room {
			if room < minSectionBody+utf8.RuneCountInString(TruncatedMarker) {
				continue
			}
			body = tail(body, room)
		}
		bodies[name] = body
		avail -= overhead + utf8.RuneCountInString(body)
	}

	for _, name := range deps {
		if body, ok := bodies[name]; ok {
			b.add(Header(name) + "\n" + body)
		}
	}
}

// addMemory appends as many condensed lines as fit.
func (b *budgeted) addMemory(lines []string) {
	if len(lines) == 0 {
		return
	}
	section := memoryHeader
	for _, line := range lines {
		next := section + "\n" + line
		if b.cost(next) > b.remaining() {
			break
		}
		section = next
	}
	if section == memoryHeader {
		return
	}
	b.add(section)
}

func (b *budgeted) String() string {
	return strings.Join(b.parts, separator)
}

// head keeps the first limit runes.
func head(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// tail keeps the most recent content, marker included, within limit runes.
func tail(s string, limit int) string {
	keep := limit - utf8.RuneCountInString(TruncatedMarker)
	if keep <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= keep {
		return s
	}
	return TruncatedMarker + string(r[len(r)-keep:])
}
