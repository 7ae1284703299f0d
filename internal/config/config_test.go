package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorfit/thor/internal/llm"
)

func TestLoad_Defaults(t *testing.T) {
	// OPENAI_API_KEY is required because the complex tier defaults to openai.
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "default", cfg.PlanName)
	assert.Equal(t, llm.ProviderOllama, cfg.SimpleProvider)
	assert.Equal(t, "llama3.2", cfg.SimpleModel)
	assert.Equal(t, llm.ProviderOpenAI, cfg.ComplexProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.ComplexModel)
	assert.Equal(t, 1, cfg.MaxToolRounds)
	assert.Equal(t, "0 21 * * *", cfg.SummaryCronSpec)
	assert.Equal(t, "http://localhost:8080/mcp", cfg.MCPBaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("THOR_PORT", "9090")
	t.Setenv("THOR_SIMPLE_MODEL", "qwen2.5")
	t.Setenv("THOR_COMPLEX_PROVIDER", "ollama")
	t.Setenv("THOR_COMPLEX_MODEL", "llama3.3")
	t.Setenv("THOR_MAX_TOOL_ROUNDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "qwen2.5", cfg.SimpleModel)
	assert.Equal(t, llm.ProviderOllama, cfg.ComplexProvider)
	assert.Equal(t, 3, cfg.MaxToolRounds)
	// The MCP URL default tracks the port.
	assert.Equal(t, "http://localhost:9090/mcp", cfg.MCPBaseURL)
}

func TestLoad_OpenAIKeyRequiredForOpenAITier(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	// All-local setups don't need a key.
	t.Setenv("THOR_COMPLEX_PROVIDER", "ollama")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOllama, cfg.ComplexProvider)
}

func TestLoad_RejectsBadPlanID(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("THOR_PLAN_ID", "not-a-uuid")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THOR_PLAN_ID")
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("THOR_SIMPLE_PROVIDER", "anthropic")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THOR_SIMPLE_PROVIDER")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DatabaseURL:         "postgres://localhost/thor",
			SimpleProvider:      llm.ProviderOllama,
			ComplexProvider:     llm.ProviderOllama,
			MaxToolRounds:       1,
			CatalogTTL:          1,
			MaxRequestBodyBytes: 1,
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxToolRounds = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CatalogTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestTierDefaults(t *testing.T) {
	cfg := Config{
		SimpleProvider:  llm.ProviderOllama,
		SimpleModel:     "llama3.2",
		ComplexProvider: llm.ProviderOpenAI,
		ComplexModel:    "gpt-4o-mini",
	}
	defaults := cfg.TierDefaults()
	assert.Equal(t, llm.TierConfig{Provider: "ollama", Model: "llama3.2"}, defaults[llm.TierSimple])
	assert.Equal(t, llm.TierConfig{Provider: "openai", Model: "gpt-4o-mini"}, defaults[llm.TierComplex])
}
