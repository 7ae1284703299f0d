package model

import (
	"time"

	"github.com/google/uuid"
)

// Exercise is a canonical exercise catalog entry for one day of a plan.
// Read-only to the interpretation pipeline; used only for matching.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Name      string    `json:"name"`
	DayOfWeek int       `json:"day_of_week"` // 1=Monday .. 7=Sunday
	Aliases   []string  `json:"aliases,omitempty"`
	Position  int       `json:"position"`
}

// ParsedLog is the normalized output of the freeform workout parser,
// ready for persistence as one exercise-log row.
//
// When the extraction produced a variable-reps sequence, Reps holds the
// rounded mean of that sequence and Notes carries a machine-readable echo
// in the form "reps_per_set=[n1,n2,...]", followed by any free-text
// commentary the extraction captured.
type ParsedLog struct {
	Exercise  string   `json:"exercise"`
	Sets      *int     `json:"sets,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	WeightLbs *float64 `json:"weight_lbs,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

// ExerciseLog is a persisted workout log row.
type ExerciseLog struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Exercise  string    `json:"exercise"`
	Sets      *int      `json:"sets,omitempty"`
	Reps      *int      `json:"reps,omitempty"`
	WeightLbs *float64  `json:"weight_lbs,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	LogDate   time.Time `json:"log_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan is a workout plan owning a set of per-day canonical exercises.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ingest item statuses reported per parsed exercise.
const (
	IngestStatusLogged             = "logged"
	IngestStatusSkippedUnknown     = "skipped_unknown_exercise"
	IngestStatusSkippedAlreadyDone = "skipped_already_logged_today"
)

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
