package openai_provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openclaw/tubebrief/provider"
)

// Client implements provider.Completer on top of the OpenAI chat
// completions API. A non-empty base URL routes the same wire protocol
// through compatible gateways (OpenRouter and friends).
type Client struct {
	api   *openai.Client
	model string
}

func New(apiKey, baseURL, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &provider.Error{Kind: provider.Unreachable, Message: "no choices in response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps API failures onto the provider error taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &provider.Error{Kind: provider.Unauthorized, Message: apiErr.Message, Err: err}
		case http.StatusTooManyRequests:
			return &provider.Error{Kind: provider.RateLimited, Message: apiErr.Message, Err: err}
		}
		return &provider.Error{Kind: provider.Unreachable, Message: apiErr.Message, Err: err}
	}
	return &provider.Error{Kind: provider.Unreachable, Message: err.Error(), Err: err}
}
