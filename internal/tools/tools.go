// Package tools provides the tool invocation capability used by the agent
// orchestrator: an MCP client for calling remote tools by name, and a
// registry that maps tool names to their definitions so dispatch is a lookup
// rather than a string switch.
package tools

import "context"

// Tool describes one callable capability discovered from the MCP endpoint.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Result is the structured outcome of a tool call. Tool-side failures are
// reported with IsError set rather than an error return, so the orchestration
// loop can still produce a user-facing reply.
type Result struct {
	Content string
	IsError bool
}

// Invoker lists and calls remote tools.
type Invoker interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (Result, error)
}
