package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/mrz1836/foundry/internal/ctxutil"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/workspace"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS project_state (
	project_id TEXT PRIMARY KEY,
	doc        TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore implements Store with one row per project in a single
// database file. It suits hosts that keep many small projects and want one
// file to back up.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	locks  *projectLocks
	now    func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), workspace.DirPerm); err != nil {
		return nil, fmt.Errorf("create state db directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// One connection keeps read-modify-write transactions strictly ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		path:   path,
		logger: logger,
		locks:  newProjectLocks(),
		now:    time.Now,
	}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path(projectID string) (string, error) {
	if _, err := workspace.SafeID(projectID); err != nil {
		return "", err
	}
	return s.path, nil
}

// Load reads the project's row. A missing row or corrupt document yields
// the default schema.
func (s *SQLiteStore) Load(ctx context.Context, projectID string) (*domain.ProjectState, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	key, err := workspace.SafeID(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %q: %w", projectID, err)
	}
	st, err := s.read(ctx, s.db, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("state row unreadable, using defaults")
		return domain.NewProjectState(), nil
	}
	return st, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// read loads the row stored under key, the sanitized project id. Only a
// query failure other than a missing row is returned.
func (s *SQLiteStore) read(ctx context.Context, q queryer, key string) (*domain.ProjectState, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT doc FROM project_state WHERE project_id = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewProjectState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state for %q: %w", key, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	return decode(s.logger, key, []byte(doc)), nil
}

// Save upserts the full document.
func (s *SQLiteStore) Save(ctx context.Context, projectID string, st *domain.ProjectState) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}
	key, err := workspace.SafeID(projectID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(key)
	defer unlock()
	return s.write(ctx, s.db, key, st)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// write upserts st under key, the sanitized project id.
func (s *SQLiteStore) write(ctx context.Context, e execer, key string, st *domain.ProjectState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state for %q: %w", key, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO project_state (project_id, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		key, string(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error().Err(err).Str("project_id", key).Msg("state save failed")
		return fmt.Errorf("failed to save state for %q: %w", key, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	return nil
}

// Update merges partial over the stored document.
func (s *SQLiteStore) Update(ctx context.Context, projectID string, partial map[string]any) (*domain.ProjectState, error) {
	return s.Mutate(ctx, projectID, mergeFunc(partial))
}

// Mutate performs the read-modify-write inside one transaction.
func (s *SQLiteStore) Mutate(ctx context.Context, projectID string, fn MutateFunc) (*domain.ProjectState, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	key, err := workspace.SafeID(projectID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(key)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin state update: %w", foundryerrors.Join(foundryerrors.ErrState, err))
	}
	defer func() { _ = tx.Rollback() }()

	st, err := s.read(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, fmt.Errorf("failed to update state for %q: %w", projectID, err)
	}
	if err := s.write(ctx, tx, key, st); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit state for %q: %w", projectID, foundryerrors.Join(foundryerrors.ErrState, err))
	}
	return st, nil
}

var _ Store = (*SQLiteStore)(nil)
