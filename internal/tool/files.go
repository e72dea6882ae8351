package tool

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mrz1836/foundry/internal/domain"
	"github.com/mrz1836/foundry/internal/workspace"
)

// artifactPerm is used for generated source so ordinary tools can read it.
const artifactPerm = 0o644

//nolint:gochecknoglobals // Static skip set
var skipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	".git":         true,
	".venv":        true,
}

func (e *Executor) read(projectID string, args map[string]string) outcome {
	path, err := e.layout.Resolve(projectID, args["path"])
	if err != nil {
		return failure(err)
	}
	data, err := os.ReadFile(path) //#nosec G304 -- path resolved inside the project workspace
	if err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	return outcome{output: string(data)}
}

func (e *Executor) write(projectID string, args map[string]string) outcome {
	rel := args["path"]
	path, err := e.layout.Resolve(projectID, rel)
	if err != nil {
		return failure(err)
	}
	content := args["content"]
	if err := workspace.AtomicWrite(path, []byte(content), artifactPerm); err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	return outcome{output: fmt.Sprintf("wrote %d bytes to %s", len(content), filepath.ToSlash(rel))}
}

// list prints workspace-relative paths, one per line. Optional arguments:
// recursive, ext (suffix filter), contains (comma-separated substrings a
// file must include), count_lines (append a tab and the line count, plus a
// total line).
func (e *Executor) list(projectID string, args map[string]string) outcome {
	rel := args["path"]
	if rel == "" {
		rel = "."
	}
	dir, err := e.layout.Resolve(projectID, rel)
	if err != nil {
		return failure(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	if !info.IsDir() {
		return outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("%s is not a directory", rel)}
	}

	root, err := e.layout.Dir(projectID)
	if err != nil {
		return failure(err)
	}
	recursive, _ := strconv.ParseBool(args["recursive"])
	countLines, _ := strconv.ParseBool(args["count_lines"])
	ext := args["ext"]
	var needles []string
	if c := args["contains"]; c != "" {
		needles = strings.Split(c, ",")
	}

	var lines []string
	total := 0
	visit := func(path string, d fs.DirEntry) error {
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)
		if d.IsDir() {
			if ext == "" && needles == nil {
				lines = append(lines, relPath+"/")
			}
			return nil
		}
		if ext != "" && !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		if needles == nil && !countLines {
			lines = append(lines, relPath)
			return nil
		}
		data, readErr := os.ReadFile(path) //#nosec G304 -- walking inside the project workspace
		if readErr != nil {
			return nil //nolint:nilerr // unreadable files are skipped
		}
		if needles != nil && !containsAny(string(data), needles) {
			return nil
		}
		if countLines {
			n := countFileLines(data)
			total += n
			lines = append(lines, fmt.Sprintf("%s\t%d", relPath, n))
			return nil
		}
		lines = append(lines, relPath)
		return nil
	}

	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil //nolint:nilerr // keep walking past unreadable entries
			}
			if path == dir {
				return nil
			}
			if d.IsDir() && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return visit(path, d)
		})
	} else {
		var entries []os.DirEntry
		entries, err = os.ReadDir(dir)
		for _, entry := range entries {
			if visitErr := visit(filepath.Join(dir, entry.Name()), entry); visitErr != nil {
				err = visitErr
				break
			}
		}
	}
	if err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}

	sort.Strings(lines)
	if countLines {
		lines = append(lines, fmt.Sprintf("total\t%d", total))
	}
	return outcome{output: strings.Join(lines, "\n")}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func countFileLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := strings.Count(string(data), "\n")
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// Exists reports whether a workspace-relative path exists. Paths that
// escape the workspace never exist.
func (e *Executor) Exists(projectID, rel string) bool {
	path, err := e.layout.Resolve(projectID, rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// DetectTestCommand returns the test command for the project's workspace:
// pytest when tests/ or test/ exists, npm test when package.json exists.
func (e *Executor) DetectTestCommand(projectID string) ([]string, bool) {
	switch {
	case e.Exists(projectID, "tests"):
		return []string{"python", "-m", "pytest", "tests/", "-v", "--tb=short"}, true
	case e.Exists(projectID, "test"):
		return []string{"python", "-m", "pytest", "test/", "-v", "--tb=short"}, true
	case e.Exists(projectID, "package.json"):
		return []string{"npm", "test"}, true
	}
	return nil, false
}
