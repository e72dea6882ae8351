package worker

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Provider names accepted in Settings.Order.
const (
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderGemini    = "gemini"
)

// Settings selects and configures providers. Keys come from the
// process credentials snapshot.
type Settings struct {
	Order       []string
	Model       string
	GeminiModel string
	AWSRegion   string

	AnthropicKey string
	GeminiKey    string
	TogetherKey  string
	PexelsKey    string

	Images bool
	Videos bool
}

// Providers is everything an engine needs to reach the outside world
// besides the Tool Executor.
type Providers struct {
	LLM    Completer
	Images MediaFinder
	Videos MediaFinder

	closers []func() error
}

// Close releases provider clients.
func (p *Providers) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build wires the configured providers. A provider without credentials is
// skipped with a warning; if none remain the LLM is Offline. Missing media
// keys leave the corresponding finder nil.
func Build(ctx context.Context, s Settings, logger zerolog.Logger, opts ...ChainOption) *Providers {
	p := &Providers{}
	var completers []Completer

	for _, name := range s.Order {
		name = strings.ToLower(strings.TrimSpace(name))
		var (
			c   Completer
			err error
		)
		switch name {
		case ProviderAnthropic:
			c, err = NewAnthropic(ctx, AnthropicConfig{APIKey: s.AnthropicKey, Model: s.Model})
		case ProviderBedrock:
			if s.AWSRegion == "" {
				logger.Debug().Msg("bedrock skipped: no AWS region")
				continue
			}
			c, err = NewAnthropic(ctx, AnthropicConfig{UseBedrock: true, AWSRegion: s.AWSRegion, Model: s.Model})
		case ProviderGemini:
			var g *GeminiCompleter
			g, err = NewGemini(ctx, s.GeminiKey, s.GeminiModel)
			if err == nil {
				p.closers = append(p.closers, g.Close)
				c = g
			}
		default:
			logger.Warn().Str("provider", name).Msg("unknown LLM provider ignored")
			continue
		}
		if err != nil {
			logger.Debug().Err(err).Str("provider", name).Msg("LLM provider unavailable")
			continue
		}
		completers = append(completers, c)
	}

	if len(completers) == 0 {
		logger.Warn().Msg("no LLM provider configured; agents will produce empty output")
		p.LLM = Offline{}
	} else {
		p.LLM = NewChain(logger, completers, opts...)
	}

	if s.Images {
		if g := NewImageGenerator(s.TogetherKey); g != nil {
			p.Images = g
		}
	}
	if s.Videos {
		if v := NewVideoFinder(s.PexelsKey); v != nil {
			p.Videos = v
		}
	}
	return p
}
