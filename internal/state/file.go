package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/flock"
	"github.com/mrz1836/foundry/internal/workspace"
)

// FileStore implements Store with one state.json per project workspace.
//
// Writers are serialized twice: an in-process mutex per project, and an
// advisory file lock so two foundry processes cannot interleave updates.
type FileStore struct {
	layout      *workspace.Layout
	logger      zerolog.Logger
	locks       *projectLocks
	lockTimeout time.Duration
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLockTimeout sets how long writers wait for the cross-process lock.
func WithLockTimeout(d time.Duration) FileStoreOption {
	return func(s *FileStore) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewFileStore creates a FileStore over the given workspace layout.
func NewFileStore(layout *workspace.Layout, logger zerolog.Logger, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		layout:      layout,
		logger:      logger,
		locks:       newProjectLocks(),
		lockTimeout: constants.LockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state.json path for a project.
func (s *FileStore) Path(projectID string) (string, error) {
	return s.layout.StatePath(projectID)
}

// Load reads state.json. A missing or unparsable file yields the default
// schema; only an invalid project id or a canceled context is an error.
func (s *FileStore) Load(ctx context.Context, projectID string) (*domain.ProjectState, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	path, err := s.layout.StatePath(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %q: %w", projectID, err)
	}
	st, err := s.read(projectID, path)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("state unreadable, using defaults")
		return domain.NewProjectState(), nil
	}
	return st, nil
}

// read decodes state.json. A missing or corrupt file yields the default
// schema; any other read failure is returned so writers do not replace a
// document they could not see.
func (s *FileStore) read(projectID, path string) (*domain.ProjectState, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is built from a sanitized project id
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewProjectState(), nil
		}
		return nil, fmt.Errorf("failed to read state for %q: %w", projectID, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	return decode(s.logger, projectID, data), nil
}

// Save writes the full document atomically under the project lock.
func (s *FileStore) Save(ctx context.Context, projectID string, st *domain.ProjectState) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	unlock := s.locks.lock(projectID)
	defer unlock()

	lock, path, err := s.acquire(ctx, projectID)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	return s.write(projectID, path, st)
}

// Update merges partial over the stored document and saves it.
func (s *FileStore) Update(ctx context.Context, projectID string, partial map[string]any) (*domain.ProjectState, error) {
	return s.Mutate(ctx, projectID, mergeFunc(partial))
}

// Mutate performs a locked read-modify-write.
func (s *FileStore) Mutate(ctx context.Context, projectID string, fn MutateFunc) (*domain.ProjectState, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(projectID)
	defer unlock()

	lock, path, err := s.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	st, err := s.read(projectID, path)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, fmt.Errorf("failed to update state for %q: %w", projectID, err)
	}
	if err := s.write(projectID, path, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *FileStore) acquire(ctx context.Context, projectID string) (*flock.Lock, string, error) {
	if _, err := s.layout.Ensure(projectID); err != nil {
		return nil, "", foundryerrors.Join(foundryerrors.ErrState, err)
	}
	path, err := s.layout.StatePath(projectID)
	if err != nil {
		return nil, "", err
	}
	lockPath, err := s.layout.LockPath(projectID)
	if err != nil {
		return nil, "", err
	}
	lock, err := flock.Acquire(ctx, lockPath, s.lockTimeout)
	if err != nil {
		return nil, "", fmt.Errorf("failed to lock state for %q: %w", projectID, err)
	}
	return lock, path, nil
}

func (s *FileStore) write(projectID, path string, st *domain.ProjectState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state for %q: %w", projectID, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	if err := workspace.AtomicWrite(path, data, workspace.FilePerm); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("state save failed")
		return fmt.Errorf("failed to save state for %q: %w", projectID, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	return nil
}

var _ Store = (*FileStore)(nil)
