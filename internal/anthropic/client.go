// Package anthropic sends note conversations to the Claude Messages API
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pbrown/notechat/internal/chat"
	"github.com/pbrown/notechat/internal/models"
)

const (
	// DefaultTimeout for API calls
	DefaultTimeout = 5 * time.Minute

	// APIKeyEnvVar holds the API key
	APIKeyEnvVar = "ANTHROPIC_API_KEY"
)

var (
	// ErrMissingAPIKey is returned by Send when no API key is configured
	ErrMissingAPIKey = errors.New(APIKeyEnvVar + " environment variable not set")

	// ErrEmptyResponse is returned when the reply carries no text blocks
	ErrEmptyResponse = errors.New("response contained no text")
)

// Config configures the client
type Config struct {
	APIKey  string        // default: $ANTHROPIC_API_KEY
	BaseURL string        // default: SDK default
	Timeout time.Duration // default: DefaultTimeout
}

// Client wraps the Anthropic SDK as a chat.Client
type Client struct {
	apiKey string
	sdk    sdk.Client
}

// NewClient creates a client. A missing API key is reported on Send, so the
// failure ends up in the note like any other call error.
func NewClient(cfg Config) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnvVar)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// One attempt per run: the SDK's own retries are disabled.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		apiKey: apiKey,
		sdk:    sdk.NewClient(opts...),
	}
}

// Send sends the turns with the system instruction and returns the
// concatenated text blocks of the reply.
func (c *Client) Send(ctx context.Context, req chat.Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages:  messageParams(req.Turns),
	}
	if req.SystemInstruction != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemInstruction}}
	}

	msg, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic: API error (status %d): %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}

	var result strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	if result.Len() == 0 {
		return "", fmt.Errorf("%w (stop reason %q)", ErrEmptyResponse, string(msg.StopReason))
	}

	return result.String(), nil
}

// messageParams maps transcript turns to Messages API params
func messageParams(turns []models.Turn) []sdk.MessageParam {
	params := make([]sdk.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := sdk.NewTextBlock(t.Content)
		if t.Role == models.RoleAssistant {
			params = append(params, sdk.NewAssistantMessage(block))
		} else {
			params = append(params, sdk.NewUserMessage(block))
		}
	}
	return params
}
