package state

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/constants"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/workspace"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the configured backend. The returned close function is
// always non-nil.
func Open(ctx context.Context, backend string, layout *workspace.Layout, lockTimeout time.Duration, logger zerolog.Logger) (Store, func() error, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(layout, logger, WithLockTimeout(lockTimeout)), func() error { return nil }, nil
	case BackendSQLite:
		s, err := OpenSQLiteStore(ctx, filepath.Join(layout.Root(), constants.StateDBFileName), logger)
		if err != nil {
			return nil, func() error { return nil }, foundryerrors.Join(foundryerrors.ErrState, err)
		}
		return s, s.Close, nil
	default:
		return nil, func() error { return nil }, fmt.Errorf("state backend %q: %w", backend, foundryerrors.ErrInvalidConfig)
	}
}
