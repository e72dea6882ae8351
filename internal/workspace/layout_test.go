package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

func TestSafeID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "proj-1", "proj-1", nil},
		{"slashes", "team/app", "team_app", nil},
		{"backslashes", `team\app`, "team_app", nil},
		{"traversal flattened", "../../etc", ".._.._etc", nil},
		{"empty", "", "", foundryerrors.ErrEmptyValue},
		{"blank", "   ", "", foundryerrors.ErrEmptyValue},
		{"dotdot", "..", "", foundryerrors.ErrPathEscape},
		{"dot", ".", "", foundryerrors.ErrPathEscape},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SafeID(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLayout_Paths(t *testing.T) {
	root := t.TempDir()
	l, err := NewLayout(root)
	require.NoError(t, err)

	dir, err := l.Dir("team/app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "team_app"), dir)

	statePath, err := l.StatePath("team/app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state.json"), statePath)

	lockPath, err := l.LockPath("team/app")
	require.NoError(t, err)
	assert.Equal(t, statePath+".lock", lockPath)

	ensured, err := l.Ensure("team/app")
	require.NoError(t, err)
	assert.DirExists(t, ensured)
}

func TestResolve(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		rel     string
		wantErr error
	}{
		{"nested file", "src/App.jsx", nil},
		{"dot segments inside", "src/../server.py", nil},
		{"parent escape", "../outside.txt", foundryerrors.ErrPathEscape},
		{"deep escape", "a/b/../../../x", foundryerrors.ErrPathEscape},
		{"absolute", "/etc/passwd", foundryerrors.ErrPathEscape},
		{"empty", "", foundryerrors.ErrEmptyValue},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(root, tc.rel)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, within(root, got))
		})
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := Resolve(root, "link/secret.txt")
	require.ErrorIs(t, err, foundryerrors.ErrPathEscape)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"plan":[]}`), FilePerm))
	data, err := os.ReadFile(path) //#nosec G304 -- test path
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":[]}`, string(data))

	require.NoError(t, AtomicWrite(path, []byte(`{"plan":["x"]}`), FilePerm))
	data, err = os.ReadFile(path) //#nosec G304 -- test path
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":["x"]}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
