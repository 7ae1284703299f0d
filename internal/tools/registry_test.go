package tools

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	tools    []Tool
	listErr  error
	results  map[string]Result
	callErr  error
	lastName string
	lastArgs map[string]any
}

func (f *fakeInvoker) ListTools(context.Context) ([]Tool, error) {
	return f.tools, f.listErr
}

func (f *fakeInvoker) CallTool(_ context.Context, name string, args map[string]any) (Result, error) {
	f.lastName = name
	f.lastArgs = args
	if f.callErr != nil {
		return Result{}, f.callErr
	}
	return f.results[name], nil
}

func newTestRegistry(inv Invoker) *Registry {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRegistry(inv, logger)
}

func TestRegistry_RefreshAndLookup(t *testing.T) {
	inv := &fakeInvoker{tools: []Tool{
		{Name: "get_today_exercises", Description: "today's plan"},
		{Name: "log_workout", Description: "log freeform workout text"},
	}}
	r := newTestRegistry(inv)
	require.NoError(t, r.Refresh(context.Background()))

	_, ok := r.Lookup("log_workout")
	assert.True(t, ok)
	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRegistry_RefreshErrorKeepsOldCatalog(t *testing.T) {
	inv := &fakeInvoker{tools: []Tool{{Name: "get_today_exercises"}}}
	r := newTestRegistry(inv)
	require.NoError(t, r.Refresh(context.Background()))

	inv.listErr = errors.New("mcp unreachable")
	require.Error(t, r.Refresh(context.Background()))

	_, ok := r.Lookup("get_today_exercises")
	assert.True(t, ok, "failed refresh must not clear the catalog")
}

func TestRegistry_CallUnknownToolIsErrorResult(t *testing.T) {
	r := newTestRegistry(&fakeInvoker{})
	require.NoError(t, r.Refresh(context.Background()))

	res, err := r.Call(context.Background(), "ghost", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "ghost")
}

func TestRegistry_CallPassesThrough(t *testing.T) {
	inv := &fakeInvoker{
		tools:   []Tool{{Name: "get_day_exercises"}},
		results: map[string]Result{"get_day_exercises": {Content: `["Floor Press"]`}},
	}
	r := newTestRegistry(inv)
	require.NoError(t, r.Refresh(context.Background()))

	res, err := r.Call(context.Background(), "get_day_exercises", map[string]any{"day_of_week": 1})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `["Floor Press"]`, res.Content)
	assert.Equal(t, map[string]any{"day_of_week": 1}, inv.lastArgs)
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	inv := &fakeInvoker{tools: []Tool{
		{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"},
	}}
	r := newTestRegistry(inv)
	require.NoError(t, r.Refresh(context.Background()))

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "mid", defs[1].Name)
	assert.Equal(t, "zeta", defs[2].Name)
}
