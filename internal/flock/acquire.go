package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/ctxutil"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// Lock is a held exclusive lock on a lock file.
type Lock struct {
	f *os.File
}

// Acquire opens path (creating it and its parent directory as needed) and
// takes an exclusive lock on it, retrying until timeout elapses or ctx is done.
// A zero timeout uses constants.LockTimeout.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = constants.LockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, filePerm) //#nosec G302,G304 -- lock file needs write access, path is constructed by the caller from a sanitized id
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := tryLock(f); err == nil {
			return &Lock{f: f}, nil
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock %s: %w", filepath.Base(path), foundryerrors.ErrLockTimeout)
		}
		if err := ctxutil.Sleep(ctx, constants.LockRetryInterval); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
}

// Release unlocks and closes the lock file. It is safe to call on nil.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := unlock(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return f.Close()
}
