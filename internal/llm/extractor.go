package llm

import (
	"context"
	"fmt"
	"strings"
)

// extractionSystemPrompt instructs the model to emit only the JSON array the
// parser expects. The allowed exercise list is appended per call.
const extractionSystemPrompt = `You extract structured workout data from free-form text.

Respond with ONLY a JSON array, no prose. Each recognized exercise mention
becomes one object, in the order mentions appear in the text, with fields:
  exercise_free   string  - the mention verbatim
  exercise_match  string  - the closest name from the allowed list (best effort)
  sets            int or null
  reps_per_set    int or null  - only when every set has the same rep count
  variable_reps   array of ints or null - per-set reps when they vary
  weight_lbs      number or null
  notes           string or null - any commentary attached to the mention

Never merge or reorder mentions, including duplicates. If the text contains
no exercises, respond with [].`

// WorkoutExtractor adapts a chat completion provider into the extraction
// capability the parser consumes.
type WorkoutExtractor struct {
	provider Provider
}

// NewWorkoutExtractor creates an extractor backed by the given provider.
func NewWorkoutExtractor(provider Provider) *WorkoutExtractor {
	return &WorkoutExtractor{provider: provider}
}

// ExtractWorkout sends normalized workout text and the day's allowed exercise
// names to the model, returning its raw output for the parser to decode.
func (e *WorkoutExtractor) ExtractWorkout(ctx context.Context, text string, allowed []string) (string, error) {
	system := extractionSystemPrompt
	if len(allowed) > 0 {
		system += "\n\nAllowed exercise_match values:\n- " + strings.Join(allowed, "\n- ")
	}

	resp, err := e.provider.Complete(ctx, Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: text}},
	})
	if err != nil {
		return "", fmt.Errorf("llm: workout extraction: %w", err)
	}
	return resp.Content, nil
}
