// Package worker provides the provider-facing side of agent execution:
// LLM text completers, the provider fallback chain, and the image and
// video finders used by media agents.
package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Request is one text completion call.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Completion is a provider response.
type Completion struct {
	Text     string
	Tokens   int
	Provider string
}

// Completer produces text for a system and user prompt.
type Completer interface {
	// Name identifies the provider in logs and results.
	Name() string

	// Complete runs one completion. An empty Text with a nil error is a
	// valid answer that callers classify as empty output.
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// MediaFinder resolves a search query or generation prompt to a URL.
// An empty URL with a nil error means nothing suitable was found.
type MediaFinder interface {
	Find(ctx context.Context, query string) (string, error)
}

// Classify maps a completion outcome to an agent error kind. ctxErr is the
// error of the agent's own timeout context, which distinguishes a per-agent
// timeout from any other provider failure.
func Classify(c *Completion, err, ctxErr error) domain.ErrorKind {
	switch {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return domain.ErrorKindTimeout
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorKindTimeout
	case err != nil:
		return domain.ErrorKindProviderError
	case c == nil || strings.TrimSpace(c.Text) == "":
		return domain.ErrorKindEmptyOutput
	default:
		return domain.ErrorKindNone
	}
}

// Offline is the completer used when no provider is configured. It always
// returns empty output so the criticality policy decides what happens.
type Offline struct{}

// Name implements Completer.
func (Offline) Name() string { return "offline" }

// Complete implements Completer.
func (Offline) Complete(ctx context.Context, _ Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Completion{Provider: "offline"}, nil
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (*Completion, error)

// Name implements Completer.
func (CompleterFunc) Name() string { return "func" }

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Completion, error) {
	return f(ctx, req)
}

// unavailable builds the error returned when a provider lacks credentials.
func unavailable(provider, envVar string) error {
	return foundryerrors.Wrapf(foundryerrors.ErrProviderUnavailable, "%s: %s is not set", provider, envVar)
}

var (
	_ Completer = Offline{}
	_ Completer = CompleterFunc(nil)
)
