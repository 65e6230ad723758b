// Package llm provides the default domain.Completer implementation
// backed by OpenAI's chat completions API, grounded on
// Tangerg-lynx/ai's extensions/models/openai API wrapper
// (openai.NewClient(option.WithAPIKey(...)), client.Chat.Completions.New).
// FilterExecutor depends only on domain.Completer, so any other vendor
// client can be swapped in without touching the filter package.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type OpenAICompleter struct {
	client openai.Client
}

func NewOpenAICompleter(apiKey string, opts ...option.RequestOption) *OpenAICompleter {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAICompleter{client: openai.NewClient(options...)}
}

// Complete implements domain.Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxOutputTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}
	if maxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
