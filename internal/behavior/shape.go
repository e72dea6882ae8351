package behavior

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mrz1836/foundry/internal/constants"
)

//nolint:gochecknoglobals // Static key tables
var (
	lineKeys = map[string]bool{
		"plan":              true,
		"feedback_log":      true,
		"design_iterations": true,
	}
	mapKeys = map[string]bool{
		"requirements":       true,
		"stack":              true,
		"decisions":          true,
		"design_spec":        true,
		"brand_spec":         true,
		"deploy_result":      true,
		"vibe_spec":          true,
		"voice_requirements": true,
		"aesthetic_report":   true,
		"team_preferences":   true,
		"mood":               true,
		"accessibility_vibe": true,
		"performance_vibe":   true,
		"creative_ideas":     true,
	}

	fenceOpen  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\n?")
	fenceClose = regexp.MustCompile("\n?```[ \t]*$")
)

// StateValue converts agent output into the value stored under key.
// List keys become non-empty trimmed lines. Mapping keys hold parsed JSON,
// or {"raw": text} when the output is not a JSON object. memory_summary
// is capped. Anything else is stored as trimmed text.
func StateValue(key, output string) any {
	text := strings.TrimSpace(output)
	switch {
	case lineKeys[key]:
		return Lines(text)
	case mapKeys[key]:
		if obj, ok := ParseJSONObject(text); ok {
			return obj
		}
		return map[string]any{"raw": capRunes(text, constants.RawValueMaxChars)}
	case key == "memory_summary":
		return capRunes(text, constants.MemorySummaryMaxChars)
	default:
		return text
	}
}

// Lines splits text into non-empty trimmed lines.
func Lines(text string) []string {
	out := []string{}
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = fenceOpen.ReplaceAllString(t, "")
	t = fenceClose.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// ParseJSONObject parses text as a JSON object after stripping fences.
func ParseJSONObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(StripFences(text)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// MediaRequests parses a role to prompt (or search query) object. Non-string
// and blank values are dropped.
func MediaRequests(text string) map[string]string {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(obj))
	for role, v := range obj {
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
			out[role] = strings.TrimSpace(s)
		}
	}
	return out
}

// URLLines returns the lines of text that are bare http(s) URLs.
func URLLines(text string) []string {
	var out []string
	for _, ln := range Lines(text) {
		if isHTTP(ln) {
			out = append(out, ln)
		}
	}
	return out
}

// FirstURL returns the first whitespace- or comma-separated word that is an
// http(s) URL, or "".
func FirstURL(text string) string {
	for _, word := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
		if isHTTP(word) {
			return word
		}
	}
	return ""
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsJSONLike reports whether output should be persisted with a .json suffix.
func IsJSONLike(output string) bool {
	t := strings.TrimSpace(output)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}

// Slug turns an agent name into a file name stem.
func Slug(agent string) string {
	return strings.NewReplacer(" ", "_", "/", "-").Replace(agent)
}

func capRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
