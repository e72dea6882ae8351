// Package state persists one ProjectState document per project.
//
// Two backends implement Store: FileStore keeps human-readable state.json
// in the project workspace, SQLiteStore keeps every document in a single
// database. Both serialize writers per project and never surface parse
// errors from Load; a corrupt or missing document loads as the default
// schema.
package state

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/workspace"
)

// MutateFunc edits a loaded state in place. Returning an error aborts the
// write and leaves the persisted document untouched.
type MutateFunc func(s *domain.ProjectState) error

// Store defines the persistence contract for project state.
type Store interface {
	// Load returns the persisted state merged over the default schema.
	// Unreadable documents yield the default schema and a logged warning.
	Load(ctx context.Context, projectID string) (*domain.ProjectState, error)

	// Save writes the full document atomically.
	Save(ctx context.Context, projectID string, s *domain.ProjectState) error

	// Update merges partial over the current document at the top level and
	// saves it under the project lock.
	Update(ctx context.Context, projectID string, partial map[string]any) (*domain.ProjectState, error)

	// Mutate runs fn as a read-modify-write under the project lock.
	Mutate(ctx context.Context, projectID string, fn MutateFunc) (*domain.ProjectState, error)

	// Path returns where the project's document lives, for user-facing messages.
	Path(projectID string) (string, error)
}

// projectLocks hands out one mutex per project id.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

// lock keys by the sanitized id so ids sharing a workspace share a mutex.
func (p *projectLocks) lock(projectID string) func() {
	if safe, err := workspace.SafeID(projectID); err == nil {
		projectID = safe
	}
	p.mu.Lock()
	m, ok := p.locks[projectID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[projectID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// mergeFunc adapts a partial map into a MutateFunc.
func mergeFunc(partial map[string]any) MutateFunc {
	return func(s *domain.ProjectState) error {
		return s.Merge(partial)
	}
}

// decode parses a stored document. A corrupt document yields the default
// schema; mistyped schema keys are reset individually and logged.
func decode(logger zerolog.Logger, projectID string, data []byte) *domain.ProjectState {
	st := &domain.ProjectState{}
	if err := json.Unmarshal(data, st); err != nil {
		logger.Warn().Err(err).Str("project_id", projectID).Msg("state document corrupt, using defaults")
		return domain.NewProjectState()
	}
	if dropped := st.DroppedKeys(); len(dropped) > 0 {
		logger.Warn().Strs("keys", dropped).Str("project_id", projectID).Msg("state keys had the wrong type, reset to defaults")
	}
	return st
}
