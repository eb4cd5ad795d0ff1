// Package llmservice wraps the inference model behind a text-in/text-out
// contract. The client is constructed once per process and reused.
package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/config"
)

// Generator is the generation contract the query engine depends on. Tests
// substitute a fake; production uses Client.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client drives the configured chat model through langchaingo.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// NewClient builds the process-wide generation client.
func NewClient(cfg *config.LLMConfig, timeout time.Duration) (*Client, error) {
	var model llms.Model
	var err error
	switch cfg.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai", "":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	default:
		err = fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &Client{model: model, timeout: timeout}, nil
}

// Generate runs one chat completion under the client timeout. A slow model
// fails as a reported error rather than hanging the request.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: userPrompt}},
		},
	}

	res, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("generation returned no choices")
	}
	log.Debug().Int("choices", len(res.Choices)).Msg("generated content")
	return res.Choices[0].Content, nil
}
