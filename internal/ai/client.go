// Package ai holds the language-model collaborators of the form
// pipeline: question generation and extraction, block grouping,
// question-to-block matching, document summarization and answer
// generation. The network edge is the Completer interface; everything
// downstream of it is pure parsing and is tested without a live model.
package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Completer sends one system/user prompt pair to a language model and
// returns the text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ChatClient is the production Completer backed by an OpenAI-compatible
// chat completion endpoint (Azure deployments work via the base URL).
type ChatClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// ChatConfig configures a ChatClient.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	MaxRetries  int
}

// NewChatClient creates a chat completion client.
func NewChatClient(cfg ChatConfig) *ChatClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &ChatClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Complete sends the prompt pair and returns the first choice's text.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
