package thor

import (
	"time"

	"github.com/google/uuid"
)

// ToolCall records one tool invocation the agent made while answering.
type ToolCall struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
}

// ChatResponse is the reply to a conversational turn.
type ChatResponse struct {
	Reply     string     `json:"reply"`
	SessionID string     `json:"sessionId"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Model     string     `json:"model"`
	Provider  string     `json:"provider"`
}

// Action is one storage-visible effect of a routed utterance.
type Action struct {
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail,omitempty"`
}

// RouteResponse is the structured result of the deterministic router path.
type RouteResponse struct {
	Agent      string   `json:"agent"`
	Intent     string   `json:"intent"`
	Message    string   `json:"message"`
	Actions    []Action `json:"actions,omitempty"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"model"`
	Provider   string   `json:"provider"`
}

// IngestItem is the per-exercise outcome of a freeform workout submission.
type IngestItem struct {
	Exercise string     `json:"exercise"`
	Status   string     `json:"status"`
	LogID    *uuid.UUID `json:"log_id,omitempty"`
}

// IngestResult is the outcome of a whole freeform workout submission.
type IngestResult struct {
	Items []IngestItem `json:"items"`
}

// Exercise is one canonical plan entry.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Name      string    `json:"name"`
	DayOfWeek int       `json:"day_of_week"`
	Aliases   []string  `json:"aliases,omitempty"`
	Position  int       `json:"position"`
}

// DayExercises is the scheduled exercise list for one day of week.
type DayExercises struct {
	DayOfWeek int        `json:"day_of_week"`
	Exercises []Exercise `json:"exercises"`
}

// DailySummary is a stored end-of-day recap.
type DailySummary struct {
	ID          uuid.UUID `json:"id"`
	SummaryDate time.Time `json:"summary_date"`
	Content     string    `json:"content"`
	Model       string    `json:"model"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

// HealthResponse is the server health report.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
