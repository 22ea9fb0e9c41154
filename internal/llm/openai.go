package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/arcsolve/internal/prompts"
)

// NewOpenAIClient builds a go-openai client for the configured provider.
func NewOpenAIClient(cfg *Config) (*openai.Client, error) {
	var oc openai.ClientConfig

	switch cfg.Provider {
	case ProviderAzure:
		if cfg.Token == "" {
			return nil, fmt.Errorf("%w: azure", ErrMissingToken)
		}
		oc = openai.DefaultAzureConfig(cfg.Token, cfg.BaseURL)
		if cfg.APIVersion != "" {
			oc.APIVersion = cfg.APIVersion
		}
	case ProviderOllama:
		oc = openai.DefaultConfig(cfg.Token)
		oc.BaseURL = cfg.BaseURL
	default:
		if cfg.Token == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingToken)
		}
		oc = openai.DefaultConfig(cfg.Token)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
	}

	return openai.NewClientWithConfig(oc), nil
}

// Client implements Capability over an OpenAI-compatible chat completion API
// using JSON-object response mode.
type Client struct {
	api        *openai.Client
	model      string
	maxRetries int
	timeout    time.Duration
	backoff    time.Duration
	logger     *slog.Logger
}

// New creates a Client from a finalized Config.
func New(cfg *Config, logger *slog.Logger) (*Client, error) {
	api, err := NewOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:        api,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.TimeoutDuration(),
		backoff:    cfg.BackoffDuration(),
		logger:     logger.With("system", "llm", "model", cfg.Model),
	}, nil
}

// API exposes the underlying client for file and fine-tuning endpoints.
func (c *Client) API() *openai.Client {
	return c.api
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

// StructuredComplete renders tmpl with vars, appends the schema contract, and
// decodes the model's JSON reply into out. Transport failures and schema
// violations are retried up to the configured limit.
func (c *Client) StructuredComplete(
	ctx context.Context,
	schema Schema,
	tmpl *prompts.Template,
	vars map[string]string,
	out any,
) error {
	prompt, err := tmpl.Render(vars)
	if err != nil {
		return &CapabilityError{Stage: tmpl.Stage(), Err: err}
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt + "\n\n" + schema.Instructions()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	attempts := 0
	var lastErr error

	for attempts <= c.maxRetries {
		attempts++

		content, err := c.complete(ctx, req)
		if err == nil {
			if err = schema.Decode(content, out); err == nil {
				return nil
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}

		c.logger.WarnContext(ctx, "structured completion failed",
			"stage", tmpl.Stage(),
			"schema", schema.Name,
			"attempt", attempts,
			"error", err,
		)

		if attempts <= c.maxRetries {
			select {
			case <-ctx.Done():
				lastErr = errors.Join(lastErr, ctx.Err())
			case <-time.After(c.backoff * time.Duration(attempts)):
				continue
			}
			break
		}
	}

	return &CapabilityError{Stage: tmpl.Stage(), Attempts: attempts, Err: lastErr}
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
