// Package llm provides the chat completion capability consumed by the agent
// orchestrator and the workout parser. Two providers are supported — a local
// Ollama server and the OpenAI API — selected per request tier by a
// runtime-updatable configuration store.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Message roles on the completion wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-result message back to the request that
	// produced it (required by OpenAI, ignored by Ollama).
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCallRequest is a model-issued request to invoke a named tool.
type ToolCallRequest struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolDefinition describes a callable tool attached to a completion request.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is a single chat completion request.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Completion is the provider-neutral result of a completion request.
type Completion struct {
	Content   string
	ToolCalls []ToolCallRequest
	Model     string
	Provider  string
}

// Provider issues chat completions against one backend.
type Provider interface {
	// Complete issues a single non-streaming completion. Tool definitions,
	// when present, are attached with automatic tool selection.
	Complete(ctx context.Context, req Request) (*Completion, error)
	// Name returns the provider identifier ("ollama" or "openai").
	Name() string
	// Model returns the model this provider instance is bound to.
	Model() string
}

// Provider identifiers accepted in tier configuration.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Tier is the model size class selected per request.
type Tier string

const (
	// TierSimple serves read-only queries with a smaller, faster model.
	TierSimple Tier = "simple"
	// TierComplex serves mutating or ambiguous requests with a larger model.
	TierComplex Tier = "complex"
)

// TierConfig names the provider and model serving one tier.
type TierConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Options carries the transport settings shared by all providers.
type Options struct {
	OllamaURL    string
	OpenAIAPIKey string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// NewProvider constructs the provider named by cfg.
func NewProvider(cfg TierConfig, opts Options) (Provider, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaProvider(opts.OllamaURL, cfg.Model, opts.HTTPClient), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(opts.OpenAIAPIKey, cfg.Model, opts.HTTPClient)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// CompleteWithRetry retries transient completion failures with a fixed delay
// between attempts. Used by callers like the daily summary that prefer a late
// answer over none; interactive call sites propagate the first error instead.
func CompleteWithRetry(ctx context.Context, p Provider, req Request, attempts int, delay time.Duration) (*Completion, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("llm: %d attempts failed: %w", attempts, lastErr)
}
