// Package workspace maps project ids to per-project directories and keeps
// every file operation inside them.
//
// Each project owns exactly one directory, <root>/<safe id>/, holding
// state.json, the generated source tree, and outputs/. Paths supplied by
// agents are resolved with Resolve, which rejects anything that would land
// outside that directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/foundry/internal/constants"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Directory and file permission constants.
const (
	DirPerm  = 0o750
	FilePerm = 0o600
)

// SafeID derives the directory name for a project id by replacing path
// separators. Ids that would still address a parent or the root itself
// are rejected.
func SafeID(projectID string) (string, error) {
	if strings.TrimSpace(projectID) == "" {
		return "", fmt.Errorf("project id %w", foundryerrors.ErrEmptyValue)
	}
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(projectID)
	if safe == "." || safe == ".." || strings.ContainsRune(safe, 0) {
		return "", fmt.Errorf("project id %q: %w", projectID, foundryerrors.ErrPathEscape)
	}
	return safe, nil
}

// Layout resolves per-project paths under a workspace root.
type Layout struct {
	root string
}

// NewLayout returns a Layout rooted at root. An empty root resolves to
// ~/.foundry/workspaces.
func NewLayout(root string) (*Layout, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, constants.FoundryHome, constants.WorkspacesDir)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	return &Layout{root: abs}, nil
}

// Root returns the absolute workspace root.
func (l *Layout) Root() string {
	return l.root
}

// Dir returns the project directory.
func (l *Layout) Dir(projectID string) (string, error) {
	safe, err := SafeID(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, safe), nil
}

// Ensure creates the project directory if missing and returns it.
func (l *Layout) Ensure(projectID string) (string, error) {
	dir, err := l.Dir(projectID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return "", fmt.Errorf("failed to create workspace for %q: %w", projectID, err)
	}
	return dir, nil
}

// StatePath returns the path of the project's state.json.
func (l *Layout) StatePath(projectID string) (string, error) {
	dir, err := l.Dir(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.StateFileName), nil
}

// LockPath returns the path of the project's cross-process lock file.
func (l *Layout) LockPath(projectID string) (string, error) {
	p, err := l.StatePath(projectID)
	if err != nil {
		return "", err
	}
	return p + ".lock", nil
}

// Resolve maps a workspace-relative path to an absolute path inside the
// project directory. Absolute inputs, parent traversal, and symlinks that
// point outside the project all fail with ErrPathEscape.
func (l *Layout) Resolve(projectID, rel string) (string, error) {
	dir, err := l.Dir(projectID)
	if err != nil {
		return "", err
	}
	return Resolve(dir, rel)
}

// Resolve is the root-relative form of Layout.Resolve.
func Resolve(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path %w", foundryerrors.ErrEmptyValue)
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") {
		return "", fmt.Errorf("%q is absolute: %w", rel, foundryerrors.ErrPathEscape)
	}

	target := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, target) {
		return "", fmt.Errorf("%q resolves outside the workspace: %w", rel, foundryerrors.ErrPathEscape)
	}

	// Follow symlinks on the longest existing prefix so a link planted in
	// the workspace cannot redirect writes elsewhere.
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			return target, nil
		}
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	existing := target
	for {
		if _, statErr := os.Lstat(existing); statErr == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}
	realExisting, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", rel, err)
	}
	if !within(realRoot, realExisting) {
		return "", fmt.Errorf("%q follows a link outside the workspace: %w", rel, foundryerrors.ErrPathEscape)
	}
	return target, nil
}

func within(root, target string) bool {
	r, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return r == "." || (r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)))
}
