// Package chat defines the contract notechat needs from a chat completion
// provider and routes each request to a provider by model name.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbrown/notechat/internal/models"
)

// Provider names
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ErrUnknownProvider is returned when a model names a provider with no client
var ErrUnknownProvider = errors.New("no client for provider")

// Request is one non-streaming completion request
type Request struct {
	Turns             []models.Turn
	Model             string
	MaxOutputTokens   int
	SystemInstruction string
}

// Client sends a conversation and returns the reply text.
// Any transport or provider failure is returned as an error.
type Client interface {
	Send(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Send calls f
func (f ClientFunc) Send(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// openAIPrefixes select OpenAI when a model has no explicit provider prefix
var openAIPrefixes = []string{"gpt-", "chatgpt-", "o1", "o3", "o4"}

// Resolve returns the provider for a model name and the model id to send.
// An explicit "anthropic:" or "openai:" prefix wins and is stripped.
func Resolve(model string) (provider, id string) {
	model = strings.TrimSpace(model)

	if name, rest, ok := strings.Cut(model, ":"); ok {
		switch strings.ToLower(name) {
		case ProviderAnthropic:
			return ProviderAnthropic, rest
		case ProviderOpenAI:
			return ProviderOpenAI, rest
		}
	}

	lower := strings.ToLower(model)
	for _, p := range openAIPrefixes {
		if strings.HasPrefix(lower, p) {
			return ProviderOpenAI, model
		}
	}
	return ProviderAnthropic, model
}

// Router is a Client that forwards each request to the provider its model
// resolves to.
type Router struct {
	clients map[string]Client
}

// NewRouter creates a router over the given provider clients
func NewRouter(clients map[string]Client) *Router {
	r := &Router{clients: make(map[string]Client, len(clients))}
	for name, c := range clients {
		if c != nil {
			r.clients[strings.ToLower(name)] = c
		}
	}
	return r
}

// Send resolves the provider and forwards the request with the bare model id
func (r *Router) Send(ctx context.Context, req Request) (string, error) {
	provider, id := Resolve(req.Model)

	c, ok := r.clients[provider]
	if !ok {
		return "", fmt.Errorf("%w %q (model %s)", ErrUnknownProvider, provider, req.Model)
	}

	req.Model = id
	return c.Send(ctx, req)
}
