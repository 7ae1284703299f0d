package model

import (
	"time"

	"github.com/google/uuid"
)

// Health event types inferred from utterance keywords.
const (
	HealthEventMigraine = "migraine"
	HealthEventSleep    = "sleep"
	HealthEventYardwork = "yardwork"
	HealthEventPain     = "pain"
	HealthEventOther    = "other"
)

// HealthEvent is a persisted health log row (migraine, sleep, yardwork, ...).
type HealthEvent struct {
	ID          uuid.UUID `json:"id"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Meal is a persisted nutrition row. Description holds the user's free text;
// calorie analysis happens outside this service.
type Meal struct {
	ID          uuid.UUID `json:"id"`
	MealType    string    `json:"meal_type"` // breakfast, lunch, dinner, snack
	Description string    `json:"description"`
	Calories    *int      `json:"calories,omitempty"`
	MealDate    time.Time `json:"meal_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// DailySummary is a stored end-of-day recap generated by the summary service.
type DailySummary struct {
	ID          uuid.UUID `json:"id"`
	SummaryDate time.Time `json:"summary_date"`
	Content     string    `json:"content"`
	Model       string    `json:"model"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}
