package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Chain tries completers in order until one answers. Provider errors move
// to the next completer; cancellation and deadline errors stop the chain
// because every later provider would hit the same deadline.
type Chain struct {
	completers []Completer
	retries    int
	backoff    time.Duration
	logger     zerolog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithRetries sets how many extra attempts a transient error earns on the
// same completer before the chain moves on.
func WithRetries(n int, backoff time.Duration) ChainOption {
	return func(c *Chain) {
		c.retries = max(n, 0)
		c.backoff = backoff
	}
}

// NewChain builds a chain. An empty chain behaves like Offline.
func NewChain(logger zerolog.Logger, completers []Completer, opts ...ChainOption) *Chain {
	c := &Chain{completers: completers, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Completer.
func (c *Chain) Name() string {
	if len(c.completers) == 0 {
		return Offline{}.Name()
	}
	names := make([]string, len(c.completers))
	for i, comp := range c.completers {
		names[i] = comp.Name()
	}
	return strings.Join(names, ">")
}

// Len returns the number of providers in the chain.
func (c *Chain) Len() int { return len(c.completers) }

// Complete implements Completer.
func (c *Chain) Complete(ctx context.Context, req Request) (*Completion, error) {
	if len(c.completers) == 0 {
		return Offline{}.Complete(ctx, req)
	}

	var lastErr error
	for i, comp := range c.completers {
		for attempt := 0; attempt <= c.retries; attempt++ {
			out, err := comp.Complete(ctx, req)
			if err == nil {
				if i > 0 || attempt > 0 {
					c.logger.Info().
						Str("provider", comp.Name()).
						Int("fallback_index", i).
						Int("retry", attempt).
						Msg("completion succeeded after fallback")
				}
				return out, nil
			}
			if stopsChain(ctx, err) {
				return nil, err
			}
			lastErr = err

			if !isRetryable(err) || attempt == c.retries {
				c.logger.Warn().Err(err).Str("provider", comp.Name()).Msg("provider failed, trying next")
				break
			}
			if werr := wait(ctx, c.backoff*time.Duration(attempt+1)); werr != nil {
				return nil, werr
			}
		}
	}
	return nil, fmt.Errorf("%w: %w", foundryerrors.ErrAllProvidersFailed, lastErr)
}

func stopsChain(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// isRetryable reports whether retrying the same provider could help.
// Missing credentials and authentication failures never improve.
func isRetryable(err error) bool {
	if errors.Is(err, foundryerrors.ErrProviderUnavailable) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, fatal := range []string{"authentication", "api key", "invalid x-api-key", "permission", "not found"} {
		if strings.Contains(msg, fatal) {
			return false
		}
	}
	return true
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Completer = (*Chain)(nil)
