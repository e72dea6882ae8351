package tool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/mrz1836/foundry/internal/constants"
)

// CommandRunner executes an argv in a directory. The executor depends on
// this interface so tests can script command results.
type CommandRunner interface {
	// Run executes argv in dir. A non-zero exit is reported through exitCode
	// with a nil error; err is reserved for failures to start or wait.
	Run(ctx context.Context, dir string, argv []string) (stdout, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner with os/exec. No shell is involved:
// argv[0] is looked up on PATH and the rest are passed verbatim.
type ExecRunner struct {
	// MaxOutputBytes caps each captured stream. Zero uses constants.ToolOutputMaxBytes.
	MaxOutputBytes int
}

// Run executes argv. Canceling ctx kills the process; pipes are abandoned
// after constants.ProcessWaitDelay so a child holding them cannot hang the build.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) (stdout, stderr string, exitCode int, err error) {
	limit := r.MaxOutputBytes
	if limit <= 0 {
		limit = constants.ToolOutputMaxBytes
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //#nosec G204 -- argv passed the run allowlist
	cmd.Dir = dir
	cmd.WaitDelay = constants.ProcessWaitDelay

	outBuf := &cappedBuffer{limit: limit}
	errBuf := &cappedBuffer{limit: limit}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()
	if runErr == nil {
		return stdout, stderr, 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && ctx.Err() == nil {
		return stdout, stderr, exitErr.ExitCode(), nil
	}
	return stdout, stderr, -1, runErr
}

// cappedBuffer keeps the first limit bytes written and discards the rest
// while still reporting full writes to the producer.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room := c.limit - c.buf.Len()
	if room <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		c.buf.Write(p[:room])
		c.truncated = true
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return c.buf.String() + "\n...[output truncated]"
	}
	return c.buf.String()
}

// Allowlist matches argv prefixes.
type Allowlist struct {
	prefixes [][]string
}

// DefaultAllowlist is the set of commands agents may run.
//
//nolint:gochecknoglobals // Static allowlist table
var DefaultAllowlist = []string{
	"python -m pytest",
	"python -m bandit",
	"npm test",
	"npm run test",
	"npm audit",
	"npm run audit",
	"npx jest",
	"npx source-map-explorer",
	"npx lighthouse",
	"npx eslint",
	"npx vercel",
	"vercel",
	"node --version",
	"python --version",
	"wc -l",
	"find .",
}

// NewAllowlist parses space-separated command prefixes.
func NewAllowlist(prefixes []string) *Allowlist {
	a := &Allowlist{}
	for _, p := range prefixes {
		if fields := strings.Fields(p); len(fields) > 0 {
			a.prefixes = append(a.prefixes, fields)
		}
	}
	return a
}

// Allows reports whether argv starts with an allowlisted prefix.
func (a *Allowlist) Allows(argv []string) bool {
	if len(argv) == 0 {
		return false
	}
	for _, prefix := range a.prefixes {
		if len(argv) < len(prefix) {
			continue
		}
		match := true
		for i, part := range prefix {
			if strings.TrimSpace(argv[i]) != part {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

var _ CommandRunner = (*ExecRunner)(nil)
