package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider issues chat completions against a local Ollama server.
// Streaming is always disabled, but some Ollama builds still frame the
// response as newline-delimited JSON; both framings are tolerated by
// concatenating all message.content fragments before use.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates a provider bound to one model.
func NewOllamaProvider(baseURL, model string, httpClient *http.Client) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &OllamaProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

func (p *OllamaProvider) Name() string  { return ProviderOllama }
func (p *OllamaProvider) Model() string { return p.model }

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaToolCallFunction `json:"function"`
}

type ollamaToolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete issues a chat completion with stream=false.
func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		om := ollamaMessage{Role: m.Role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, ollamaToolCall{
				Function: ollamaToolCallFunction{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		messages = append(messages, om)
	}

	var tools []ollamaTool
	for _, def := range req.Tools {
		params := def.InputSchema
		if params == nil {
			params = map[string]any{"type": "object"}
		}
		tools = append(tools, ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  params,
			},
		})
	}

	reqBody, err := json.Marshal(ollamaChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Tools:    tools,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	model, message, err := decodeOllamaBody(body)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = p.model
	}

	out := &Completion{
		Content:  message.Content,
		Model:    model,
		Provider: ProviderOllama,
	}
	for i, tc := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCallRequest{
			ID:        fmt.Sprintf("ollama-%d", i),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// decodeOllamaBody accepts either a single JSON object or newline-delimited
// JSON fragments. For NDJSON, all message.content fragments are concatenated
// and tool calls are collected across fragments.
func decodeOllamaBody(body []byte) (string, ollamaMessage, error) {
	var single ollamaChatResponse
	if err := json.Unmarshal(body, &single); err == nil {
		return single.Model, single.Message, nil
	}

	var (
		content   strings.Builder
		toolCalls []ollamaToolCall
		model     string
		decoded   bool
	)
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var frag ollamaChatResponse
		if err := json.Unmarshal(line, &frag); err != nil {
			return "", ollamaMessage{}, fmt.Errorf("ollama: decode response fragment: %w", err)
		}
		decoded = true
		content.WriteString(frag.Message.Content)
		toolCalls = append(toolCalls, frag.Message.ToolCalls...)
		if frag.Model != "" {
			model = frag.Model
		}
	}
	if !decoded {
		return "", ollamaMessage{}, fmt.Errorf("ollama: empty response body")
	}

	return model, ollamaMessage{
		Role:      RoleAssistant,
		Content:   content.String(),
		ToolCalls: toolCalls,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
