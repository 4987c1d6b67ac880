// Package openai sends note conversations to the OpenAI Chat Completions API
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/pbrown/notechat/internal/chat"
	"github.com/pbrown/notechat/internal/models"
)

const (
	// DefaultTimeout for API calls
	DefaultTimeout = 5 * time.Minute

	// APIKeyEnvVar holds the API key
	APIKeyEnvVar = "OPENAI_API_KEY"
)

var (
	// ErrMissingAPIKey is returned by Send when no API key is configured
	ErrMissingAPIKey = errors.New(APIKeyEnvVar + " environment variable not set")

	// ErrEmptyResponse is returned when the reply has no choices or no content
	ErrEmptyResponse = errors.New("response contained no text")
)

// Config configures the client
type Config struct {
	APIKey  string        // default: $OPENAI_API_KEY
	BaseURL string        // API root including /v1; default: SDK default
	Timeout time.Duration // default: DefaultTimeout
}

// Client wraps the OpenAI SDK as a chat.Client
type Client struct {
	apiKey string
	sdk    sdk.Client
}

// NewClient creates a client. A missing API key is reported on Send.
func NewClient(cfg Config) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnvVar)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{
		apiKey: apiKey,
		sdk:    sdk.NewClient(opts...),
	}
}

// Send sends the conversation with the system instruction first and returns
// the first choice's content.
func (c *Client) Send(ctx context.Context, req chat.Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(req.Model),
		Messages: messageParams(req.SystemInstruction, req.Turns),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(req.MaxOutputTokens))
	}

	completion, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = err.Error()
			}
			return "", fmt.Errorf("openai: API error (status %d): %s", apiErr.StatusCode, msg)
		}
		return "", fmt.Errorf("openai: request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	choice := completion.Choices[0]
	if choice.Message.Content == "" {
		return "", fmt.Errorf("%w (finish reason %q)", ErrEmptyResponse, choice.FinishReason)
	}

	return choice.Message.Content, nil
}

// messageParams maps the system instruction and transcript turns to
// Chat Completions messages
func messageParams(system string, turns []models.Turn) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, sdk.SystemMessage(system))
	}
	for _, t := range turns {
		if t.Role == models.RoleAssistant {
			messages = append(messages, sdk.AssistantMessage(t.Content))
		} else {
			messages = append(messages, sdk.UserMessage(t.Content))
		}
	}
	return messages
}
