// Package model defines the domain types shared across Thor's subsystems:
// routing results, parsed workout logs, catalog entries, chat payloads,
// and the rows persisted by the storage layer.
package model

// Target is the downstream domain a classified utterance is dispatched to.
type Target string

const (
	TargetWorkout   Target = "workout"
	TargetNutrition Target = "nutrition"
	TargetHealthLog Target = "health_log"
	TargetOverview  Target = "overview"
)

// Intent tags produced by the router. The dispatcher maps each tag to a
// concrete handler within the target domain.
const (
	IntentLogWorkout        = "log_workout"
	IntentGetPlan           = "get_plan"
	IntentGetWorkouts       = "get_workouts"
	IntentUpdateWorkout     = "update_workout"
	IntentLogMeal           = "log_meal"
	IntentGetMeals          = "get_meals"
	IntentLogEvent          = "log_event"
	IntentGetHealthEvents   = "get_health_events"
	IntentDeleteHealthEvent = "delete_health_event"
	IntentGetSummary        = "get_summary"
)

// RouterResult is the outcome of classifying a single utterance.
// Created fresh per utterance, immutable, consumed once by the dispatcher.
type RouterResult struct {
	Target      Target  `json:"target"`
	Intent      string  `json:"intent"`
	CleanedText string  `json:"cleaned_text"`
	Confidence  float64 `json:"confidence"`
}
