package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorfit/thor/internal/llm"
	"github.com/thorfit/thor/internal/tools"
)

type fakeInvoker struct {
	tools   []tools.Tool
	calls   []string
	results map[string]tools.Result
}

func (f *fakeInvoker) ListTools(ctx context.Context) ([]tools.Tool, error) {
	return f.tools, nil
}

func (f *fakeInvoker) CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	f.calls = append(f.calls, name)
	if r, ok := f.results[name]; ok {
		return r, nil
	}
	return tools.Result{Content: "{}"}, nil
}

type fakeProvider struct {
	responses []llm.Completion
	requests  []llm.Request
	err       error
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &resp, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

type staticTiers struct {
	cfg map[llm.Tier]llm.TierConfig
	err error
}

func (s staticTiers) TierConfig(ctx context.Context, tier llm.Tier) (llm.TierConfig, error) {
	if s.err != nil {
		return llm.TierConfig{}, s.err
	}
	return s.cfg[tier], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRegistry(t *testing.T, inv *fakeInvoker) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(inv, testLogger())
	require.NoError(t, reg.Refresh(context.Background()))
	return reg
}

func testDefaults() map[llm.Tier]llm.TierConfig {
	return map[llm.Tier]llm.TierConfig{
		llm.TierSimple:  {Provider: llm.ProviderOllama, Model: "llama3.2"},
		llm.TierComplex: {Provider: llm.ProviderOpenAI, Model: "gpt-4o-mini"},
	}
}

func TestRespond_BypassSkipsProvider(t *testing.T) {
	inv := &fakeInvoker{
		tools: []tools.Tool{{Name: "get_today_exercises"}},
		results: map[string]tools.Result{
			"get_today_exercises": {Content: `[{"name":"Floor Press"},{"name":"Plank"}]`},
		},
	}
	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) {
			t.Fatal("provider must not be constructed on the bypass path")
			return nil, nil
		},
		Logger: testLogger(),
	})

	reply, err := orch.Respond(context.Background(), nil, "what's my workout today?")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", reply.Provider)
	assert.Equal(t, "none", reply.Model)
	assert.Contains(t, reply.Message, "- Floor Press")
	assert.Contains(t, reply.Message, "- Plank")
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "get_today_exercises", reply.ToolCalls[0].Tool)
	assert.Equal(t, []string{"get_today_exercises"}, inv.calls)
}

func TestRespond_BypassRestDay(t *testing.T) {
	inv := &fakeInvoker{
		tools: []tools.Tool{{Name: "get_day_exercises"}},
		results: map[string]tools.Result{
			"get_day_exercises": {Content: `[]`},
		},
	}
	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) {
			t.Fatal("provider must not be constructed on the bypass path")
			return nil, nil
		},
		Logger: testLogger(),
	})

	reply, err := orch.Respond(context.Background(), nil, "show me sunday's workout")
	require.NoError(t, err)
	assert.Equal(t, "Rest day! No exercises scheduled.", reply.Message)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, float64(7), asFloat(t, reply.ToolCalls[0].Arguments["day_of_week"]))
}

func asFloat(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		t.Fatalf("unexpected numeric type %T", v)
		return 0
	}
}

func TestRespond_ToolLoop(t *testing.T) {
	inv := &fakeInvoker{
		tools: []tools.Tool{{Name: "log_workout"}},
		results: map[string]tools.Result{
			"log_workout": {Content: `{"status":"logged"}`},
		},
	}
	provider := &fakeProvider{responses: []llm.Completion{
		{
			ToolCalls: []llm.ToolCallRequest{{
				ID:        "call-1",
				Name:      "log_workout",
				Arguments: map[string]any{"exercise": "Goblet Squat"},
			}},
			Model: "fake-model", Provider: "fake",
		},
		{Content: "Logged your goblet squats.", Model: "fake-model", Provider: "fake"},
	}}

	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) { return provider, nil },
		Logger:      testLogger(),
	})

	reply, err := orch.Respond(context.Background(), nil, "log goblet squat 3x10 @45")
	require.NoError(t, err)
	assert.Equal(t, "Logged your goblet squats.", reply.Message)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "log_workout", reply.ToolCalls[0].Tool)
	assert.Equal(t, map[string]any{"status": "logged"}, reply.ToolCalls[0].Result)
	assert.Equal(t, []string{"log_workout"}, inv.calls)

	// Two completions: initial and post-tool.
	require.Len(t, provider.requests, 2)
	assert.NotEmpty(t, provider.requests[0].Tools)
	// The second request carries the tool result back to the model.
	last := provider.requests[1].Messages[len(provider.requests[1].Messages)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.JSONEq(t, `{"status":"logged"}`, last.Content)
}

func TestRespond_ToolRoundBudget(t *testing.T) {
	inv := &fakeInvoker{
		tools:   []tools.Tool{{Name: "get_summary"}},
		results: map[string]tools.Result{"get_summary": {Content: `{}`}},
	}
	// The model asks for tools on every completion; the loop must stop
	// after one round.
	loop := llm.Completion{
		ToolCalls: []llm.ToolCallRequest{{ID: "c", Name: "get_summary", Arguments: map[string]any{}}},
	}
	provider := &fakeProvider{responses: []llm.Completion{loop, loop, loop}}

	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) { return provider, nil },
		Logger:      testLogger(),
	})

	reply, err := orch.Respond(context.Background(), nil, "record everything twice")
	require.NoError(t, err)
	assert.Len(t, inv.calls, 1)
	assert.Len(t, provider.requests, 2)
	assert.Equal(t, fallbackReply, reply.Message)
}

func TestRespond_NoToolCalls(t *testing.T) {
	inv := &fakeInvoker{tools: []tools.Tool{{Name: "get_summary"}}}
	provider := &fakeProvider{responses: []llm.Completion{
		{Content: "You trained 4 times this week.", Model: "gpt-4o-mini", Provider: "openai"},
	}}

	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) { return provider, nil },
		Logger:      testLogger(),
	})

	reply, err := orch.Respond(context.Background(), nil, "give me a summary of this week")
	require.NoError(t, err)
	assert.Equal(t, "You trained 4 times this week.", reply.Message)
	assert.Empty(t, reply.ToolCalls)
	assert.Empty(t, inv.calls)
	assert.Equal(t, "gpt-4o-mini", reply.Model)
}

func TestRespond_TierStoreFallback(t *testing.T) {
	inv := &fakeInvoker{tools: []tools.Tool{{Name: "get_summary"}}}
	provider := &fakeProvider{responses: []llm.Completion{{Content: "hi"}}}

	var got llm.TierConfig
	orch := New(newTestRegistry(t, inv), staticTiers{err: errors.New("store down")}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) {
			got = cfg
			return provider, nil
		},
		Logger: testLogger(),
	})

	_, err := orch.Respond(context.Background(), nil, "show my history")
	require.NoError(t, err)
	assert.Equal(t, testDefaults()[llm.TierSimple], got)
}

func TestRespond_HistoryPrecedesUserTurn(t *testing.T) {
	inv := &fakeInvoker{tools: []tools.Tool{{Name: "get_summary"}}}
	provider := &fakeProvider{responses: []llm.Completion{{Content: "ok"}}}

	orch := New(newTestRegistry(t, inv), staticTiers{cfg: testDefaults()}, testDefaults(), Options{
		NewProvider: func(cfg llm.TierConfig) (llm.Provider, error) { return provider, nil },
		Logger:      testLogger(),
	})

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}
	_, err := orch.Respond(context.Background(), history, "what's next")
	require.NoError(t, err)

	msgs := provider.requests[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "what's next", msgs[2].Content)
	assert.Equal(t, llm.RoleUser, msgs[2].Role)
}

func TestClassifyTier(t *testing.T) {
	simple := []string{
		"which exercises are scheduled for wednesday",
		"show my meal history",
		"how many workouts this month",
		"give me a summary",
	}
	complexMsgs := []string{
		"log bench press 3x10 @135",
		"I ate a burrito for lunch",
		"record a migraine this morning",
		"completed my training",
		"hello there", // no query keyword
	}
	for _, msg := range simple {
		assert.Equal(t, llm.TierSimple, classifyTier(msg), "message: %q", msg)
	}
	for _, msg := range complexMsgs {
		assert.Equal(t, llm.TierComplex, classifyTier(msg), "message: %q", msg)
	}
}

func TestDecodeResult(t *testing.T) {
	v := decodeResult(`{"a":1}`)
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	assert.Equal(t, "plain text", decodeResult("plain text"))
}
