package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// ProjectState is the persistent record for one project.
//
// Every key of the default schema is a typed field. Keys outside the schema
// are kept verbatim in SideChannel so documents written by newer versions
// survive a round-trip. Unset containers are always materialized as empty
// values, never null.
type ProjectState struct {
	Plan              []string          `json:"plan"`
	Requirements      map[string]any    `json:"requirements"`
	Stack             map[string]any    `json:"stack"`
	Decisions         map[string]any    `json:"decisions"`
	DesignSpec        map[string]any    `json:"design_spec"`
	BrandSpec         map[string]any    `json:"brand_spec"`
	MemorySummary     string            `json:"memory_summary"`
	Artifacts         []Artifact        `json:"artifacts"`
	TestResults       TestResults       `json:"test_results"`
	DeployResult      map[string]any    `json:"deploy_result"`
	SecurityReport    string            `json:"security_report"`
	UXReport          string            `json:"ux_report"`
	PerformanceReport string            `json:"performance_report"`
	ToolLog           []ToolLogEntry    `json:"tool_log"`
	Images            map[string]string `json:"images"`
	Videos            map[string]string `json:"videos"`

	VibeSpec          map[string]any `json:"vibe_spec"`
	VoiceRequirements map[string]any `json:"voice_requirements"`
	AestheticReport   map[string]any `json:"aesthetic_report"`
	TeamPreferences   map[string]any `json:"team_preferences"`
	FeedbackLog       []string       `json:"feedback_log"`
	Mood              map[string]any `json:"mood"`
	AccessibilityVibe map[string]any `json:"accessibility_vibe"`
	PerformanceVibe   map[string]any `json:"performance_vibe"`
	CreativeIdeas     map[string]any `json:"creative_ideas"`
	DesignIterations  []string       `json:"design_iterations"`
	CodeReviewReport  string         `json:"code_review_report"`
	BundleReport      string         `json:"bundle_report"`
	LighthouseReport  string         `json:"lighthouse_report"`
	DependencyAudit   string         `json:"dependency_audit"`
	ScrapeURLs        []string       `json:"scrape_urls"`

	AgentResults map[string]AgentOutcome     `json:"agent_results"`
	AgentErrors  map[string]AgentErrorRecord `json:"agent_errors"`
	LastBuild    BuildRecord                 `json:"last_build"`

	// SideChannel holds keys that are not part of the schema, verbatim.
	SideChannel map[string]json.RawMessage `json:"-"`

	// dropped lists schema keys whose stored value had the wrong JSON type.
	dropped []string
}

// accessor reads and decodes one schema key.
type accessor struct {
	value  func(*ProjectState) any
	decode func(*ProjectState, json.RawMessage) error
}

func field[T any](ptr func(*ProjectState) *T) accessor {
	return accessor{
		value: func(s *ProjectState) any { return *ptr(s) },
		decode: func(s *ProjectState, raw json.RawMessage) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			*ptr(s) = v
			return nil
		},
	}
}

// schemaKeys lists the default schema in document order.
//
//nolint:gochecknoglobals // Static schema table
var schemaKeys = []string{
	"plan", "requirements", "stack", "decisions", "design_spec", "brand_spec",
	"memory_summary", "artifacts", "test_results", "deploy_result",
	"security_report", "ux_report", "performance_report", "tool_log", "images", "videos",
	"vibe_spec", "voice_requirements", "aesthetic_report", "team_preferences", "feedback_log",
	"mood", "accessibility_vibe", "performance_vibe", "creative_ideas", "design_iterations",
	"code_review_report", "bundle_report", "lighthouse_report", "dependency_audit", "scrape_urls",
	"agent_results", "agent_errors", "last_build",
}

//nolint:gochecknoglobals // Static schema table
var schema = map[string]accessor{
	"plan":               field(func(s *ProjectState) *[]string { return &s.Plan }),
	"requirements":       field(func(s *ProjectState) *map[string]any { return &s.Requirements }),
	"stack":              field(func(s *ProjectState) *map[string]any { return &s.Stack }),
	"decisions":          field(func(s *ProjectState) *map[string]any { return &s.Decisions }),
	"design_spec":        field(func(s *ProjectState) *map[string]any { return &s.DesignSpec }),
	"brand_spec":         field(func(s *ProjectState) *map[string]any { return &s.BrandSpec }),
	"memory_summary":     field(func(s *ProjectState) *string { return &s.MemorySummary }),
	"artifacts":          field(func(s *ProjectState) *[]Artifact { return &s.Artifacts }),
	"test_results":       field(func(s *ProjectState) *TestResults { return &s.TestResults }),
	"deploy_result":      field(func(s *ProjectState) *map[string]any { return &s.DeployResult }),
	"security_report":    field(func(s *ProjectState) *string { return &s.SecurityReport }),
	"ux_report":          field(func(s *ProjectState) *string { return &s.UXReport }),
	"performance_report": field(func(s *ProjectState) *string { return &s.PerformanceReport }),
	"tool_log":           field(func(s *ProjectState) *[]ToolLogEntry { return &s.ToolLog }),
	"images":             field(func(s *ProjectState) *map[string]string { return &s.Images }),
	"videos":             field(func(s *ProjectState) *map[string]string { return &s.Videos }),
	"vibe_spec":          field(func(s *ProjectState) *map[string]any { return &s.VibeSpec }),
	"voice_requirements": field(func(s *ProjectState) *map[string]any { return &s.VoiceRequirements }),
	"aesthetic_report":   field(func(s *ProjectState) *map[string]any { return &s.AestheticReport }),
	"team_preferences":   field(func(s *ProjectState) *map[string]any { return &s.TeamPreferences }),
	"feedback_log":       field(func(s *ProjectState) *[]string { return &s.FeedbackLog }),
	"mood":               field(func(s *ProjectState) *map[string]any { return &s.Mood }),
	"accessibility_vibe": field(func(s *ProjectState) *map[string]any { return &s.AccessibilityVibe }),
	"performance_vibe":   field(func(s *ProjectState) *map[string]any { return &s.PerformanceVibe }),
	"creative_ideas":     field(func(s *ProjectState) *map[string]any { return &s.CreativeIdeas }),
	"design_iterations":  field(func(s *ProjectState) *[]string { return &s.DesignIterations }),
	"code_review_report": field(func(s *ProjectState) *string { return &s.CodeReviewReport }),
	"bundle_report":      field(func(s *ProjectState) *string { return &s.BundleReport }),
	"lighthouse_report":  field(func(s *ProjectState) *string { return &s.LighthouseReport }),
	"dependency_audit":   field(func(s *ProjectState) *string { return &s.DependencyAudit }),
	"scrape_urls":        field(func(s *ProjectState) *[]string { return &s.ScrapeURLs }),
	"agent_results":      field(func(s *ProjectState) *map[string]AgentOutcome { return &s.AgentResults }),
	"agent_errors":       field(func(s *ProjectState) *map[string]AgentErrorRecord { return &s.AgentErrors }),
	"last_build":         field(func(s *ProjectState) *BuildRecord { return &s.LastBuild }),
}

// DefaultKeys returns the keys of the default schema in document order.
func DefaultKeys() []string {
	out := make([]string, len(schemaKeys))
	copy(out, schemaKeys)
	return out
}

// IsSchemaKey reports whether key belongs to the default schema.
func IsSchemaKey(key string) bool {
	_, ok := schema[key]
	return ok
}

// NewProjectState returns a state with every schema container initialized.
func NewProjectState() *ProjectState {
	s := &ProjectState{}
	s.normalize()
	return s
}

// normalize replaces nil containers with empty ones so they encode as [] or {}.
func (s *ProjectState) normalize() {
	s.Plan = nonNilSlice(s.Plan)
	s.FeedbackLog = nonNilSlice(s.FeedbackLog)
	s.DesignIterations = nonNilSlice(s.DesignIterations)
	s.ScrapeURLs = nonNilSlice(s.ScrapeURLs)
	s.Artifacts = nonNilSlice(s.Artifacts)
	s.ToolLog = nonNilSlice(s.ToolLog)

	for _, m := range []*map[string]any{
		&s.Requirements, &s.Stack, &s.Decisions, &s.DesignSpec, &s.BrandSpec, &s.DeployResult,
		&s.VibeSpec, &s.VoiceRequirements, &s.AestheticReport, &s.TeamPreferences, &s.Mood,
		&s.AccessibilityVibe, &s.PerformanceVibe, &s.CreativeIdeas,
	} {
		if *m == nil {
			*m = map[string]any{}
		}
	}
	if s.Images == nil {
		s.Images = map[string]string{}
	}
	if s.Videos == nil {
		s.Videos = map[string]string{}
	}
	if s.AgentResults == nil {
		s.AgentResults = map[string]AgentOutcome{}
	}
	if s.AgentErrors == nil {
		s.AgentErrors = map[string]AgentErrorRecord{}
	}
	if s.SideChannel == nil {
		s.SideChannel = map[string]json.RawMessage{}
	}
}

func nonNilSlice[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Set assigns a top-level key. Schema keys are decoded into their typed field;
// any other key is stored verbatim in the side channel.
func (s *ProjectState) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: key %q: %w", foundryerrors.ErrInvalidStateValue, key, err)
	}
	return s.SetRaw(key, raw)
}

// SetRaw assigns a top-level key from its JSON encoding.
func (s *ProjectState) SetRaw(key string, raw json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("state key %w", foundryerrors.ErrEmptyValue)
	}
	if acc, ok := schema[key]; ok {
		if err := acc.decode(s, raw); err != nil {
			return fmt.Errorf("%w: key %q: %w", foundryerrors.ErrInvalidStateValue, key, err)
		}
		s.normalize()
		return nil
	}
	if s.SideChannel == nil {
		s.SideChannel = map[string]json.RawMessage{}
	}
	s.SideChannel[key] = append(json.RawMessage(nil), raw...)
	return nil
}

// Get returns the value of a top-level key. Side-channel values are decoded
// into generic JSON values.
func (s *ProjectState) Get(key string) (any, bool) {
	if acc, ok := schema[key]; ok {
		return acc.value(s), true
	}
	raw, ok := s.SideChannel[key]
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Has reports whether a key is present. Schema keys are always present.
func (s *ProjectState) Has(key string) bool {
	if IsSchemaKey(key) {
		return true
	}
	_, ok := s.SideChannel[key]
	return ok
}

// Merge assigns every key of partial, last writer wins at the top level.
// Keys are applied in sorted order so a failure is deterministic.
func (s *ProjectState) Merge(partial map[string]any) error {
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(k, partial[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns every present key, schema keys first, then side-channel keys sorted.
func (s *ProjectState) Keys() []string {
	keys := DefaultKeys()
	extra := make([]string, 0, len(s.SideChannel))
	for k := range s.SideChannel {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Clone returns a deep copy via the JSON encoding.
func (s *ProjectState) Clone() (*ProjectState, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := &ProjectState{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalJSON encodes the state as a flat JSON object with every schema key
// plus the side-channel keys.
func (s *ProjectState) MarshalJSON() ([]byte, error) {
	c := *s
	c.normalize()
	out := make(map[string]any, len(schema)+len(c.SideChannel))
	for k, raw := range c.SideChannel {
		out[k] = raw
	}
	for k, acc := range schema {
		out[k] = acc.value(&c)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat JSON object. Missing schema keys take their
// empty default. A schema key holding the wrong JSON type keeps its default
// and is reported by DroppedKeys; the rest of the document still decodes.
func (s *ProjectState) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*s = ProjectState{}
	s.normalize()

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.SetRaw(k, doc[k]); err != nil && IsSchemaKey(k) {
			s.dropped = append(s.dropped, k)
		}
	}
	return nil
}

// DroppedKeys returns the schema keys that were reset to their default while
// decoding because the stored value had the wrong type.
func (s *ProjectState) DroppedKeys() []string {
	return append([]string(nil), s.dropped...)
}
