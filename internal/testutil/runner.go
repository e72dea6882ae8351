package testutil

import (
	"context"
	"strings"
	"sync"
)

// CommandResult is the canned outcome of one scripted command.
type CommandResult struct {
	Stdout string
	Stderr string
	Code   int
	Err    error
}

// ScriptedRunner answers commands by the longest matching argv prefix and
// records every argv it receives. Unscripted commands succeed silently.
type ScriptedRunner struct {
	mu      sync.Mutex
	results map[string]CommandResult
	calls   [][]string
}

// NewScriptedRunner creates an empty runner.
func NewScriptedRunner() *ScriptedRunner {
	return &ScriptedRunner{results: map[string]CommandResult{}}
}

// On scripts the result for commands starting with prefix (space-joined argv).
func (r *ScriptedRunner) On(prefix string, res CommandResult) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[prefix] = res
	return r
}

// Run records argv and returns the scripted result.
func (r *ScriptedRunner) Run(_ context.Context, _ string, argv []string) (string, string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), argv...))

	line := strings.Join(argv, " ")
	best, found := "", false
	for prefix := range r.results {
		if strings.HasPrefix(line, prefix) && len(prefix) >= len(best) {
			best, found = prefix, true
		}
	}
	if !found {
		return "", "", 0, nil
	}
	res := r.results[best]
	return res.Stdout, res.Stderr, res.Code, res.Err
}

// Calls returns the recorded commands as space-joined lines.
func (r *ScriptedRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}

// CountPrefix returns how many recorded commands start with prefix.
func (r *ScriptedRunner) CountPrefix(prefix string) int {
	n := 0
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
