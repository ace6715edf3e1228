// Package llm provides single-shot text completion against the Anthropic
// API. Callers hand in a prompt and get raw text back; JSON coercion is the
// caller's problem.
package llm

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultModel = "claude-haiku-4-5-20251001"

// Client performs prompt completions.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens overrides the default completion token cap.
func WithMaxTokens(maxTokens int64) Option {
	return func(c *sdkClient) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(c *sdkClient) {
		c.temperature = &temperature
	}
}

// WithSDKOptions passes extra request options to the underlying SDK,
// primarily for pointing tests at a local server.
func WithSDKOptions(opts ...option.RequestOption) Option {
	return func(c *sdkClient) {
		c.sdkOpts = append(c.sdkOpts, opts...)
	}
}

type sdkClient struct {
	client      sdk.Client
	model       string
	maxTokens   int64
	temperature *float64
	sdkOpts     []option.RequestOption
}

// NewClient creates an Anthropic-backed completion client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		model:     defaultModel,
		maxTokens: 1200,
	}
	for _, o := range opts {
		o(c)
	}
	c.sdkOpts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.sdkOpts...)
	c.client = sdk.NewClient(c.sdkOpts...)
	return c
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if c.temperature != nil {
		params.Temperature = sdk.Float(*c.temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
