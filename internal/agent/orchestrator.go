package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/thorfit/thor/internal/llm"
	"github.com/thorfit/thor/internal/model"
	"github.com/thorfit/thor/internal/tools"
)

const defaultSystemPrompt = `You are Thor, a personal fitness and health assistant.
You help the user log workouts, meals, and health events, and answer questions
about their training plan and history. Use the available tools to read and
write data; never invent workout history. Keep replies short and concrete.`

// fallbackReply is used when the model keeps requesting tools past the
// round budget without ever producing text.
const fallbackReply = "Done."

// TierSource resolves the provider/model pair for an LLM tier. The
// sqlite-backed config store implements it.
type TierSource interface {
	TierConfig(ctx context.Context, tier llm.Tier) (llm.TierConfig, error)
}

// ProviderFunc builds a provider from a tier config. Production wiring uses
// llm.NewProvider; tests substitute fakes.
type ProviderFunc func(cfg llm.TierConfig) (llm.Provider, error)

// Options configures an Orchestrator.
type Options struct {
	SystemPrompt  string
	MaxToolRounds int // tool round budget per turn; defaults to 1
	NewProvider   ProviderFunc
	Logger        *slog.Logger
}

// Orchestrator runs one chat turn: bypass check, tier selection, then the
// completion/tool loop against the registry's tool catalog.
type Orchestrator struct {
	registry    *tools.Registry
	tiers       TierSource
	defaults    map[llm.Tier]llm.TierConfig
	newProvider ProviderFunc
	system      string
	maxRounds   int
	logger      *slog.Logger
}

// Reply is the outcome of a chat turn.
type Reply struct {
	Message   string
	ToolCalls []model.ToolCall
	Model     string
	Provider  string
}

func New(registry *tools.Registry, tiers TierSource, defaults map[llm.Tier]llm.TierConfig, opts Options) *Orchestrator {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		registry:    registry,
		tiers:       tiers,
		defaults:    defaults,
		newProvider: opts.NewProvider,
		system:      opts.SystemPrompt,
		maxRounds:   opts.MaxToolRounds,
		logger:      opts.Logger,
	}
}

// Respond handles one user turn given the prior session history. The
// returned reply records every tool call the model made, in order.
func (o *Orchestrator) Respond(ctx context.Context, history []llm.Message, message string) (*Reply, error) {
	if decision := checkBypass(message); decision.bypass {
		if reply, err := o.bypassFetch(ctx, decision); err == nil {
			return reply, nil
		} else {
			o.logger.Warn("bypass fetch failed, falling back to llm", "error", err)
		}
	}

	tier := classifyTier(message)
	provider, err := o.providerFor(ctx, tier)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	reply := &Reply{Provider: provider.Name(), Model: provider.Model()}
	defs := o.registry.Definitions()

	resp, err := provider.Complete(ctx, llm.Request{
		System:   o.system,
		Messages: messages,
		Tools:    defs,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	for round := 0; round < o.maxRounds && len(resp.ToolCalls) > 0; round++ {
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result := o.executeTool(ctx, call)
			reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
				Tool:      call.Name,
				Arguments: call.Arguments,
				Result:    decodeResult(result.Content),
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.Content,
				ToolCallID: call.ID,
			})
		}

		resp, err = provider.Complete(ctx, llm.Request{
			System:   o.system,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return nil, fmt.Errorf("completion after tools: %w", err)
		}
	}

	reply.Message = resp.Content
	if reply.Message == "" {
		reply.Message = fallbackReply
	}
	if resp.Model != "" {
		reply.Model = resp.Model
	}
	return reply, nil
}

// bypassFetch answers a plan query with a single tool call and a
// deterministic render, never touching a model.
func (o *Orchestrator) bypassFetch(ctx context.Context, decision bypassDecision) (*Reply, error) {
	name := "get_today_exercises"
	args := map[string]any{}
	if decision.dayOfWeek != 0 {
		name = "get_day_exercises"
		args["day_of_week"] = decision.dayOfWeek
	}

	result, err := o.registry.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if result.IsError {
		return nil, fmt.Errorf("%s: %s", name, result.Content)
	}

	return &Reply{
		Message: renderPlan(result.Content),
		ToolCalls: []model.ToolCall{{
			Tool:      name,
			Arguments: args,
			Result:    decodeResult(result.Content),
		}},
		Model:    "none",
		Provider: "heuristic",
	}, nil
}

// providerFor resolves the tier's stored config, falling back to the static
// defaults when the store is unreachable or the provider cannot be built.
func (o *Orchestrator) providerFor(ctx context.Context, tier llm.Tier) (llm.Provider, error) {
	cfg, err := o.tiers.TierConfig(ctx, tier)
	if err != nil {
		o.logger.Warn("tier config lookup failed, using defaults", "tier", tier, "error", err)
		cfg = o.defaults[tier]
	}

	provider, err := o.newProvider(cfg)
	if err == nil {
		return provider, nil
	}

	fallback, ok := o.defaults[tier]
	if !ok || fallback == cfg {
		return nil, fmt.Errorf("provider for tier %s: %w", tier, err)
	}
	o.logger.Warn("provider unavailable, using default tier config",
		"tier", tier, "provider", cfg.Provider, "error", err)
	return o.newProvider(fallback)
}

func (o *Orchestrator) executeTool(ctx context.Context, call llm.ToolCallRequest) tools.Result {
	o.logger.Info("executing tool", "tool", call.Name)
	result, err := o.registry.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		o.logger.Warn("tool call failed", "tool", call.Name, "error", err)
		return tools.Result{Content: fmt.Sprintf("tool error: %v", err), IsError: true}
	}
	return result
}

// decodeResult keeps structured tool output structured in the transcript;
// non-JSON content is recorded as the raw string.
func decodeResult(content string) any {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return content
	}
	return v
}
