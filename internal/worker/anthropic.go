package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/mrz1836/foundry/internal/constants"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_20250514

// AnthropicConfig configures an AnthropicCompleter.
type AnthropicConfig struct {
	APIKey string
	Model  string

	// UseBedrock routes calls through AWS Bedrock using the default AWS
	// credential chain instead of an API key.
	UseBedrock bool
	AWSRegion  string

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// AnthropicCompleter calls the Messages API directly or through Bedrock.
type AnthropicCompleter struct {
	client anthropic.Client
	model  anthropic.Model
	name   string
}

// NewAnthropic creates a completer. The SDK's own retries are disabled so
// the provider chain decides when to move on.
func NewAnthropic(ctx context.Context, cfg AnthropicConfig) (*AnthropicCompleter, error) {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	name := "anthropic"

	if cfg.UseBedrock {
		name = "bedrock"
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		if cfg.APIKey == "" {
			return nil, unavailable(name, "ANTHROPIC_API_KEY")
		}
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	if cfg.UseBedrock {
		model = bedrockModel(model)
	}

	return &AnthropicCompleter{
		client: anthropic.NewClient(opts...),
		model:  model,
		name:   name,
	}, nil
}

// bedrockModel maps API model names to Bedrock cross-region inference profiles.
func bedrockModel(model anthropic.Model) anthropic.Model {
	if strings.HasPrefix(string(model), "us.anthropic.") {
		return model
	}
	profiles := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	}
	if p, ok := profiles[model]; ok {
		return anthropic.Model(p)
	}
	return model
}

// Name implements Completer.
func (c *AnthropicCompleter) Name() string { return c.name }

// Model returns the resolved model id.
func (c *AnthropicCompleter) Model() string { return string(c.model) }

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = constants.DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	return &Completion{
		Text:     text.String(),
		Tokens:   int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		Provider: c.name,
	}, nil
}

var _ Completer = (*AnthropicCompleter)(nil)
