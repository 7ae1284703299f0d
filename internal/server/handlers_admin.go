package server

import (
	"net/http"

	"github.com/thorfit/thor/internal/llm"
)

// llmConfigEntry is one tier's wire representation.
type llmConfigEntry struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// HandleGetLLMConfig returns the current per-tier provider/model config.
func (h *Handlers) HandleGetLLMConfig(w http.ResponseWriter, r *http.Request) {
	all := h.deps.Tiers.All(r.Context())
	out := make(map[string]llmConfigEntry, len(all))
	for tier, cfg := range all {
		out[string(tier)] = llmConfigEntry{Provider: cfg.Provider, Model: cfg.Model}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// HandlePutLLMConfig updates one or both tiers. Unknown tiers and invalid
// providers are rejected; valid entries apply atomically per tier.
func (h *Handlers) HandlePutLLMConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]llmConfigEntry
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req) == 0 {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "no tiers given")
		return
	}

	for name, entry := range req {
		tier := llm.Tier(name)
		if tier != llm.TierSimple && tier != llm.TierComplex {
			writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "unknown tier: "+name)
			return
		}
		if err := h.deps.Tiers.SetTierConfig(r.Context(), tier, llm.TierConfig{
			Provider: entry.Provider,
			Model:    entry.Model,
		}); err != nil {
			writeError(w, r, http.StatusBadRequest, errCodeBadRequest, err.Error())
			return
		}
		h.deps.Logger.Info("llm tier config updated",
			"tier", name, "provider", entry.Provider, "model", entry.Model)
	}

	h.HandleGetLLMConfig(w, r)
}
