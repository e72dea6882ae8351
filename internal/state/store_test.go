package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/workspace"
)

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		BackendFile: func(t *testing.T) Store {
			layout, err := workspace.NewLayout(t.TempDir())
			require.NoError(t, err)
			return NewFileStore(layout, zerolog.Nop())
		},
		BackendSQLite: func(t *testing.T) Store {
			s, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "state.db"), zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_LoadMissingReturnsDefaults(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			st, err := s.Load(context.Background(), "fresh")
			require.NoError(t, err)
			assert.NotNil(t, st.Plan)
			assert.NotNil(t, st.Requirements)
			assert.NotNil(t, st.ToolLog)
		})
	}
}

func TestStore_UpdateThenLoadContainsPartial(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			partial := map[string]any{
				"plan":          []string{"scaffold", "ship"},
				"code":          "print('hi')",
				"x_future_flag": map[string]any{"enabled": true},
			}
			_, err := s.Update(ctx, "p1", partial)
			require.NoError(t, err)

			_, err = s.Update(ctx, "p1", map[string]any{"security_report": "clean"})
			require.NoError(t, err)

			st, err := s.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, []string{"scaffold", "ship"}, st.Plan)
			assert.Equal(t, "clean", st.SecurityReport)

			code, ok := st.Get("code")
			require.True(t, ok)
			assert.Equal(t, "print('hi')", code)

			flag, ok := st.Get("x_future_flag")
			require.True(t, ok)
			assert.Equal(t, map[string]any{"enabled": true}, flag)

			for _, key := range domain.DefaultKeys() {
				assert.True(t, st.Has(key), key)
			}
		})
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			st := domain.NewProjectState()
			require.NoError(t, st.Set("stack", map[string]any{"frontend": "React"}))
			require.NoError(t, st.Set("unknown_key", []any{"a", "b"}))
			require.NoError(t, s.Save(ctx, "p1", st))

			loaded, err := s.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, "React", loaded.Stack["frontend"])
			v, ok := loaded.Get("unknown_key")
			require.True(t, ok)
			assert.Equal(t, []any{"a", "b"}, v)
		})
	}
}

func TestStore_ConcurrentUpdatesNotDropped(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			const writers = 20
			var wg sync.WaitGroup
			for i := range writers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := s.Mutate(ctx, "p1", func(st *domain.ProjectState) error {
						st.FeedbackLog = append(st.FeedbackLog, fmt.Sprintf("entry-%d", i))
						return nil
					})
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			st, err := s.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Len(t, st.FeedbackLog, writers)
		})
	}
}

func TestStore_MutateErrorLeavesDocument(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_, err := s.Update(ctx, "p1", map[string]any{"memory_summary": "before"})
			require.NoError(t, err)

			boom := errors.New("boom")
			_, err = s.Mutate(ctx, "p1", func(st *domain.ProjectState) error {
				st.MemorySummary = "after"
				return boom
			})
			require.ErrorIs(t, err, boom)

			st, err := s.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, "before", st.MemorySummary)
		})
	}
}

func TestStore_InvalidProjectID(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			_, err := s.Load(context.Background(), "")
			require.ErrorIs(t, err, foundryerrors.ErrEmptyValue)
		})
	}
}

func TestStore_CanceledContext(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Update(ctx, "p1", map[string]any{"plan": []string{"x"}})
			require.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestFileStore_TruncatedDocumentLoadsDefaults(t *testing.T) {
	ctx := context.Background()
	layout, err := workspace.NewLayout(t.TempDir())
	require.NoError(t, err)
	s := NewFileStore(layout, zerolog.Nop())

	_, err = s.Update(ctx, "p1", map[string]any{"plan": []string{"one", "two"}})
	require.NoError(t, err)

	path, err := s.Path("p1")
	require.NoError(t, err)
	data, err := os.ReadFile(path) //#nosec G304 -- test path
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o600))

	st, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, st.Plan)
	for _, key := range domain.DefaultKeys() {
		assert.True(t, st.Has(key))
	}

	_, err = s.Update(ctx, "p1", map[string]any{"plan": []string{"recovered"}})
	require.NoError(t, err)
	st, err = s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"recovered"}, st.Plan)
}

func TestFileStore_SaveSurfacesDiskErrors(t *testing.T) {
	root := t.TempDir()
	layout, err := workspace.NewLayout(root)
	require.NoError(t, err)
	s := NewFileStore(layout, zerolog.Nop())

	// A regular file where the project directory should be blocks the save.
	require.NoError(t, os.WriteFile(filepath.Join(root, "p1"), []byte("x"), 0o600))

	err = s.Save(context.Background(), "p1", domain.NewProjectState())
	require.ErrorIs(t, err, foundryerrors.ErrState)
}

func TestFileStore_SanitizesProjectID(t *testing.T) {
	root := t.TempDir()
	layout, err := workspace.NewLayout(root)
	require.NoError(t, err)
	s := NewFileStore(layout, zerolog.Nop())

	_, err = s.Update(context.Background(), "team/app", map[string]any{"plan": []string{"x"}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "team_app", "state.json"))
}

func TestOpen(t *testing.T) {
	layout, err := workspace.NewLayout(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	s, closeFn, err := Open(ctx, BackendFile, layout, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, BackendSQLite, layout, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, closeFn())

	_, closeFn, err = Open(ctx, "redis", layout, 0, zerolog.Nop())
	require.ErrorIs(t, err, foundryerrors.ErrInvalidConfig)
	require.NoError(t, closeFn())
}

const mistypedDoc = `{
	"plan": "one step as a string",
	"stack": {"frontend": "react"},
	"security_report": "ok",
	"custom_key": {"owner": "ops"}
}`

func assertMistypedDocSurvives(t *testing.T, s Store, projectID string) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Update(ctx, projectID, map[string]any{"code": "x"})
	require.NoError(t, err)

	st, err := s.Load(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, st.Plan)
	assert.Equal(t, "react", st.Stack["frontend"])
	assert.Equal(t, "ok", st.SecurityReport)

	v, ok := st.Get("custom_key")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"owner": "ops"}, v)
	v, ok = st.Get("code")
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestFileStore_MistypedKeyKeepsRestOfDocument(t *testing.T) {
	layout, err := workspace.NewLayout(t.TempDir())
	require.NoError(t, err)
	s := NewFileStore(layout, zerolog.Nop())

	_, err = layout.Ensure("p1")
	require.NoError(t, err)
	path, err := s.Path("p1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(mistypedDoc), 0o600))

	assertMistypedDocSurvives(t, s, "p1")
}

func TestSQLiteStore_MistypedKeyKeepsRestOfDocument(t *testing.T) {
	s, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "state.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO project_state (project_id, doc, updated_at) VALUES (?, ?, ?)`,
		"p1", mistypedDoc, "2026-01-01T00:00:00Z")
	require.NoError(t, err)

	assertMistypedDocSurvives(t, s, "p1")
}

func TestFileStore_MutateRefusesUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	layout, err := workspace.NewLayout(t.TempDir())
	require.NoError(t, err)
	s := NewFileStore(layout, zerolog.Nop())

	// A directory where state.json should be cannot be read as a file.
	path, err := s.Path("p1")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(path, 0o750))

	_, err = s.Update(ctx, "p1", map[string]any{"code": "x"})
	require.ErrorIs(t, err, foundryerrors.ErrState)
	assert.DirExists(t, path)

	st, err := s.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, st.Plan)
}

func TestSQLiteStore_SanitizedIDsShareOneDocument(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "state.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Update(ctx, "team/app", map[string]any{"plan": []string{"x"}})
	require.NoError(t, err)

	st, err := s.Load(ctx, "team_app")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, st.Plan)

	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_state`).Scan(&rows))
	assert.Equal(t, 1, rows)
}
