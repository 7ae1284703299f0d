package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thorfit/thor/internal/agent"
	"github.com/thorfit/thor/internal/llm"
	"github.com/thorfit/thor/internal/model"
)

// Orchestrator runs a chat turn. *agent.Orchestrator implements it.
type Orchestrator interface {
	Respond(ctx context.Context, history []llm.Message, message string) (*agent.Reply, error)
}

// Dispatcher handles structured routing. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req model.DispatchRequest) (model.DispatchResponse, error)
}

// Ingestor logs freeform workout text. *ingest.Ingestor implements it.
type Ingestor interface {
	LogWorkoutText(ctx context.Context, text string, dayOfWeek int, logDate time.Time) (model.IngestResult, error)
}

// Catalog serves the plan's exercises. *catalog.Catalog implements it.
type Catalog interface {
	PlanID() uuid.UUID
	DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error)
}

// SessionStore persists chat history. *storage.DB implements it.
type SessionStore interface {
	SessionHistory(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error)
	SaveSessionHistory(ctx context.Context, sessionID uuid.UUID, history []model.ChatMessage) error
	ResetSession(ctx context.Context, sessionID uuid.UUID) error
	DailySummaryByDate(ctx context.Context, summaryDate time.Time) (model.DailySummary, error)
	Ping(ctx context.Context) error
}

// SummaryRunner generates a daily summary on demand. *summary.Service
// implements it.
type SummaryRunner interface {
	Run(ctx context.Context, date time.Time) (model.DailySummary, error)
}

// TierStore exposes the runtime LLM tier config. *llm.Store implements it.
type TierStore interface {
	All(ctx context.Context) map[llm.Tier]llm.TierConfig
	SetTierConfig(ctx context.Context, tier llm.Tier, cfg llm.TierConfig) error
}

// HandlersDeps bundles everything the HTTP handlers need.
type HandlersDeps struct {
	Orchestrator Orchestrator
	Dispatcher   Dispatcher
	Ingestor     Ingestor
	Catalog      Catalog
	Store        SessionStore
	Summaries    SummaryRunner
	Tiers        TierStore
	Version      string
	Logger       *slog.Logger
}

// Handlers carries the HTTP handler methods.
type Handlers struct {
	deps HandlersDeps
	now  func() time.Time
}

func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		deps: deps,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// HandleHealth reports service liveness and storage connectivity.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.Ping(r.Context()); err != nil {
		writeRaw(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeRaw(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.deps.Version,
	})
}

// HandleChat is the conversational entry point. History is keyed by
// sessionId; a missing or unknown id starts a fresh session.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" && !req.Reset {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	sessionID, fresh := h.sessionID(req.SessionID)

	if req.Reset {
		// A fresh session has no stored history to clear.
		if !fresh {
			if err := h.deps.Store.ResetSession(ctx, sessionID); err != nil {
				h.deps.Logger.Error("session reset failed", "error", err)
				writeError(w, r, http.StatusInternalServerError, errCodeInternal, "session reset failed")
				return
			}
		}
		if strings.TrimSpace(req.Message) == "" {
			writeRaw(w, http.StatusOK, model.ChatResponse{
				Reply:     "Session reset.",
				SessionID: sessionID.String(),
				Model:     "none",
				Provider:  "heuristic",
			})
			return
		}
	}

	var history []model.ChatMessage
	if !fresh && !req.Reset {
		var err error
		history, err = h.deps.Store.SessionHistory(ctx, sessionID)
		if err != nil {
			h.deps.Logger.Error("session load failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, errCodeInternal, "session load failed")
			return
		}
	}

	reply, err := h.deps.Orchestrator.Respond(ctx, toLLMMessages(history), req.Message)
	if err != nil {
		h.deps.Logger.Error("chat turn failed", "error", err)
		writeError(w, r, http.StatusBadGateway, errCodeUnavailable, "the assistant is unavailable right now")
		return
	}

	history = append(history,
		model.ChatMessage{Role: "user", Content: req.Message},
		model.ChatMessage{Role: "assistant", Content: reply.Message},
	)
	if err := h.deps.Store.SaveSessionHistory(ctx, sessionID, history); err != nil {
		// The reply already exists; losing one history write is not worth
		// failing the request over.
		h.deps.Logger.Warn("session save failed", "error", err)
	}

	writeRaw(w, http.StatusOK, model.ChatResponse{
		Reply:     reply.Message,
		SessionID: sessionID.String(),
		ToolCalls: reply.ToolCalls,
		Model:     reply.Model,
		Provider:  reply.Provider,
	})
}

// sessionID parses the client-provided session id, minting a new one when
// absent or malformed. fresh reports whether a new id was minted.
func (h *Handlers) sessionID(raw string) (uuid.UUID, bool) {
	if raw == "" {
		return uuid.New(), true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.New(), true
	}
	return id, false
}

// HandleRoute is the structured multi-agent entry point.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req model.DispatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "text is required")
		return
	}

	resp, err := h.deps.Dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.deps.Logger.Error("dispatch failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "dispatch failed")
		return
	}
	writeRaw(w, http.StatusOK, resp)
}

// ingestRequest is the POST /v1/workouts/ingest payload.
type ingestRequest struct {
	Text      string `json:"text"`
	DayOfWeek int    `json:"day_of_week,omitempty"`
}

// HandleIngestWorkout runs the freeform workout pipeline directly.
func (h *Handlers) HandleIngestWorkout(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "text is required")
		return
	}
	now := h.now()
	day := req.DayOfWeek
	if day == 0 {
		day = isoWeekday(now)
	}
	if day < 1 || day > 7 {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "day_of_week must be between 1 and 7")
		return
	}

	result, err := h.deps.Ingestor.LogWorkoutText(r.Context(), req.Text, day, now)
	if err != nil {
		h.deps.Logger.Error("workout ingest failed", "error", err)
		writeError(w, r, http.StatusBadGateway, errCodeUnavailable, "workout parsing is unavailable right now")
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HandleTodayExercises returns today's scheduled exercises.
func (h *Handlers) HandleTodayExercises(w http.ResponseWriter, r *http.Request) {
	h.writeDayExercises(w, r, isoWeekday(h.now()))
}

// HandleDayExercises returns the scheduled exercises for a day of week.
func (h *Handlers) HandleDayExercises(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || day < 1 || day > 7 {
		writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "day must be between 1 (Monday) and 7 (Sunday)")
		return
	}
	h.writeDayExercises(w, r, day)
}

func (h *Handlers) writeDayExercises(w http.ResponseWriter, r *http.Request, day int) {
	exercises, err := h.deps.Catalog.DayExercises(r.Context(), h.deps.Catalog.PlanID(), day)
	if err != nil {
		h.deps.Logger.Error("exercise fetch failed", "error", err, "day", day)
		writeError(w, r, http.StatusInternalServerError, errCodeInternal, "exercise fetch failed")
		return
	}
	if exercises == nil {
		exercises = []model.Exercise{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"day_of_week": day,
		"exercises":   exercises,
	})
}

// HandleDailySummary returns the stored summary for a date (default today).
func (h *Handlers) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, errCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	summary, err := h.deps.Store.DailySummaryByDate(r.Context(), date)
	if err != nil {
		writeError(w, r, http.StatusNotFound, errCodeNotFound, "no summary for that date")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// HandleRunSummary triggers a summary run for today (admin).
func (h *Handlers) HandleRunSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Summaries.Run(r.Context(), h.now())
	if err != nil {
		h.deps.Logger.Error("summary run failed", "error", err)
		writeError(w, r, http.StatusBadGateway, errCodeUnavailable, "summary generation failed")
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func toLLMMessages(history []model.ChatMessage) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == "assistant" {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

// isoWeekday converts time.Weekday (Sunday=0) to 1=Monday .. 7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
