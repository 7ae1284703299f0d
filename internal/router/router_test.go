package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thorfit/thor/internal/model"
)

func TestClassify_HealthDominatesOtherDomains(t *testing.T) {
	// Health keywords must win even when nutrition or workout keywords
	// co-occur in the same utterance.
	inputs := []string{
		"I had a migraine after my workout",
		"slept badly and skipped breakfast",
		"logged a headache during lunch",
		"yard work wrecked me, no exercise today",
		"knee pain after the lift",
	}
	for _, in := range inputs {
		got := Classify(in, "")
		assert.Equal(t, model.TargetHealthLog, got.Target, "input: %q", in)
		assert.Equal(t, 0.8, got.Confidence, "input: %q", in)
	}
}

func TestClassify_HealthIntents(t *testing.T) {
	tests := []struct {
		text   string
		intent string
	}{
		{"when was my last migraine?", model.IntentGetHealthEvents},
		{"show me my sleep history", model.IntentGetHealthEvents},
		{"delete that migraine entry", model.IntentDeleteHealthEvent},
		{"migraine this afternoon, pretty bad", model.IntentLogEvent},
	}
	for _, tt := range tests {
		got := Classify(tt.text, "")
		assert.Equal(t, model.TargetHealthLog, got.Target, "input: %q", tt.text)
		assert.Equal(t, tt.intent, got.Intent, "input: %q", tt.text)
	}
}

func TestClassify_Nutrition(t *testing.T) {
	got := Classify("chicken salad for lunch, about 600 calories", "")
	assert.Equal(t, model.TargetNutrition, got.Target)
	assert.Equal(t, model.IntentLogMeal, got.Intent)
	assert.Equal(t, 0.7, got.Confidence)

	got = Classify("show me my meals from yesterday", "")
	assert.Equal(t, model.TargetNutrition, got.Target)
	assert.Equal(t, model.IntentGetMeals, got.Intent)
}

func TestClassify_WorkoutPlan(t *testing.T) {
	inputs := []string{
		"what workout am I supposed to do?",
		"what's my workout plan for today",
		"show me wednesday's exercises",
		"what exercises are scheduled",
	}
	for _, in := range inputs {
		got := Classify(in, "")
		assert.Equal(t, model.TargetWorkout, got.Target, "input: %q", in)
		assert.Equal(t, model.IntentGetPlan, got.Intent, "input: %q", in)
		assert.Equal(t, 0.8, got.Confidence, "input: %q", in)
	}
}

func TestClassify_PlanRuleNeedsTodayKeyword(t *testing.T) {
	// "this morning" is not a plan-query trigger; without "today" the plan
	// rule must not fire and the utterance falls through to a history query.
	got := Classify("what exercises did I do this morning", "")
	assert.Equal(t, model.TargetWorkout, got.Target)
	assert.Equal(t, model.IntentGetWorkouts, got.Intent)
}

func TestClassify_WorkoutHistory(t *testing.T) {
	got := Classify("what did I do for my workout yesterday", "")
	assert.Equal(t, model.TargetWorkout, got.Target)
	assert.Equal(t, model.IntentGetWorkouts, got.Intent)
	assert.Equal(t, 0.8, got.Confidence)

	// Health terms disqualify the history rule and win outright.
	got = Classify("did my workout trigger the migraine yesterday", "")
	assert.Equal(t, model.TargetHealthLog, got.Target)
}

func TestClassify_Overview(t *testing.T) {
	for _, in := range []string{"how am i doing this week", "what do I still need to log"} {
		got := Classify(in, "")
		assert.Equal(t, model.TargetOverview, got.Target, "input: %q", in)
		assert.Equal(t, model.IntentGetSummary, got.Intent, "input: %q", in)
	}
}

func TestClassify_DefaultIsWorkoutLog(t *testing.T) {
	got := Classify("floor press 4x12 @45", "")
	assert.Equal(t, model.TargetWorkout, got.Target)
	assert.Equal(t, model.IntentLogWorkout, got.Intent)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestClassify_DefaultEditKeyword(t *testing.T) {
	got := Classify("change my bench entry to 4 sets", "")
	assert.Equal(t, model.TargetWorkout, got.Target)
	assert.Equal(t, model.IntentUpdateWorkout, got.Intent)
}

func TestClassify_ModeOverride(t *testing.T) {
	got := Classify("migraine after goblet squats", "thor")
	assert.Equal(t, model.TargetWorkout, got.Target, "override must skip classification")
	assert.Equal(t, 1.0, got.Confidence)

	got = Classify("toast and eggs", "nutrition")
	assert.Equal(t, model.TargetNutrition, got.Target)
	assert.Equal(t, model.IntentLogMeal, got.Intent)

	// "auto" is not an override.
	got = Classify("toast and eggs for breakfast", "auto")
	assert.Equal(t, model.TargetNutrition, got.Target)
	assert.Equal(t, 0.7, got.Confidence)
}

func TestClassify_CleanedTextIsVerbatim(t *testing.T) {
	in := "  Log My WORKOUT: Floor Press 4x12 @45  "
	got := Classify(in, "")
	assert.Equal(t, in, got.CleanedText)
}

func TestClassify_Deterministic(t *testing.T) {
	in := "slept 7 hours, then leg day: squats 5x5"
	first := Classify(in, "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(in, ""))
	}
}
