package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// MCPInvoker calls tools over the Model Context Protocol's StreamableHTTP
// transport. The session is initialized lazily on first use and reused for
// subsequent calls.
type MCPInvoker struct {
	endpoint string
	version  string

	mu          sync.Mutex
	client      *mcpclient.Client
	initialized bool
}

// NewMCPInvoker creates an invoker for the MCP endpoint at url.
func NewMCPInvoker(url, version string) *MCPInvoker {
	return &MCPInvoker{endpoint: url, version: version}
}

// ensureSession connects and runs the MCP initialize handshake once.
func (m *MCPInvoker) ensureSession(ctx context.Context) (*mcpclient.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return m.client, nil
	}

	c, err := mcpclient.NewStreamableHttpClient(m.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tools: create mcp client: %w", err)
	}
	if _, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "thor-agent", Version: m.version},
		},
	}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("tools: initialize mcp session: %w", err)
	}

	m.client = c
	m.initialized = true
	return c, nil
}

// ListTools fetches the remote tool catalog.
func (m *MCPInvoker) ListTools(ctx context.Context) ([]Tool, error) {
	c, err := m.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("tools: list tools: %w", err)
	}

	out := make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		out = append(out, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}
	return out, nil
}

// CallTool invokes a remote tool with structured arguments. Tool-side
// failures come back as Result{IsError: true}; only transport failures are
// returned as errors.
func (m *MCPInvoker) CallTool(ctx context.Context, name string, args map[string]any) (Result, error) {
	c, err := m.ensureSession(ctx)
	if err != nil {
		return Result{}, err
	}

	result, err := c.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		return Result{}, fmt.Errorf("tools: call %s: %w", name, err)
	}

	return Result{
		Content: contentText(result.Content),
		IsError: result.IsError,
	}, nil
}

// Close tears down the MCP session.
func (m *MCPInvoker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	m.initialized = false
	return err
}

func contentText(content []mcplib.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(mcplib.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// schemaToMap converts the typed MCP input schema into the generic map shape
// completion providers expect.
func schemaToMap(schema mcplib.ToolInputSchema) map[string]any {
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
