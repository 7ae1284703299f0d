package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/thorfit/thor/internal/llm"
)

// Registry holds the discovered tool catalog keyed by name. It is populated
// from the invoker's ListTools at startup and can be refreshed at runtime.
type Registry struct {
	invoker Invoker
	logger  *slog.Logger

	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry. Call Refresh before first use.
func NewRegistry(invoker Invoker, logger *slog.Logger) *Registry {
	return &Registry{
		invoker: invoker,
		logger:  logger,
		tools:   make(map[string]Tool),
	}
}

// Refresh replaces the catalog with the invoker's current tool list.
func (r *Registry) Refresh(ctx context.Context) error {
	list, err := r.invoker.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("tools: refresh registry: %w", err)
	}

	tools := make(map[string]Tool, len(list))
	for _, t := range list {
		tools[t.Name] = t
	}

	r.mu.Lock()
	r.tools = tools
	r.mu.Unlock()

	r.logger.Info("tool registry refreshed", "count", len(tools))
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Call invokes a registered tool. Unknown names produce an error Result
// rather than a transport error, so the model's reply loop keeps going.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	if _, ok := r.Lookup(name); !ok {
		return Result{
			Content: fmt.Sprintf("unknown tool: %s", name),
			IsError: true,
		}, nil
	}
	return r.invoker.CallTool(ctx, name, args)
}

// Definitions returns the catalog as completion tool definitions, sorted by
// name for deterministic prompt construction.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
