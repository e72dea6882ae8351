//go:build unix

package flock_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/flock"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directory", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "state.json.lock")

		lock, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		assert.FileExists(t, path)
		require.NoError(t, lock.Release())
	})

	t.Run("times out while held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "state.json.lock")

		held, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		defer func() { _ = held.Release() }()

		_, err = flock.Acquire(context.Background(), path, 120*time.Millisecond)
		require.ErrorIs(t, err, foundryerrors.ErrLockTimeout)
	})

	t.Run("succeeds once released", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "state.json.lock")

		held, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = held.Release()
		}()

		lock, err := flock.Acquire(context.Background(), path, 2*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "state.json.lock")

		held, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		defer func() { _ = held.Release() }()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = flock.Acquire(ctx, path, 5*time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("release on nil is a no-op", func(t *testing.T) {
		t.Parallel()
		var l *flock.Lock
		assert.NoError(t, l.Release())
	})
}
