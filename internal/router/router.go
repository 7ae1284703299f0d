// Package router classifies free-form utterances into a target domain and
// intent. Classification is an ordered rule table evaluated top to bottom
// with first-match-wins, so the priority invariant (health keywords dominate
// nutrition and workout keywords) is a structural property of the table
// rather than a consequence of code order.
//
// The router is pure: no side effects, no hidden state, deterministic for
// identical inputs.
package router

import (
	"strings"

	"github.com/thorfit/thor/internal/model"
)

// Keyword groups referenced by the rules below. All matching is done on a
// lowercased copy of the input.
var (
	healthKeywords = []string{
		"migraine", "headache", "sleep", "slept", "yardwork", "yard work",
		"pain", "health event", "health log",
	}
	nutritionKeywords = []string{
		"ate ", "meal", "food", "breakfast", "lunch", "dinner", "snack", "calor",
	}
	workoutKeywords = []string{"workout", "exercise", "lift"}

	queryVerbs = []string{
		"when", "was", "were", "did", "have i", "show", "display", "list",
		"history", "last", "recent", "past", "previous", "all my",
	}
	deleteVerbs = []string{"delete", "remove", "forget"}

	planPhrases    = []string{"supposed to", "should", "plan", "scheduled"}
	showKeywords   = []string{"what", "show"}
	todayKeywords  = []string{"today"}
	historyPhrases = []string{"did i", "what did", "logged", "completed"}
	dateRefs       = []string{"yesterday", "today", "last"}
	editKeywords   = []string{"update", "change", "edit", "fix", "correct"}
	overviewPhrase = []string{
		"how am i doing", "summary", "progress", "what's my", "how's my",
		"need to log",
	}

	weekdayNames = []string{
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	}
)

// rule is one row of the classification table.
type rule struct {
	name       string
	match      func(t string) bool
	target     model.Target
	intent     func(t string) string
	confidence float64
}

// rules is evaluated top to bottom; the first matching rule wins.
// Order is load-bearing: health must dominate nutrition and workout even
// when their keywords co-occur.
var rules = []rule{
	{
		name:       "health",
		match:      func(t string) bool { return containsAny(t, healthKeywords) },
		target:     model.TargetHealthLog,
		intent:     healthIntent,
		confidence: 0.8,
	},
	{
		name:       "nutrition",
		match:      func(t string) bool { return containsAny(t, nutritionKeywords) },
		target:     model.TargetNutrition,
		intent:     nutritionIntent,
		confidence: 0.7,
	},
	{
		name: "workout_plan",
		match: func(t string) bool {
			if !containsAny(t, workoutKeywords) {
				return false
			}
			if containsAny(t, planPhrases) {
				return true
			}
			if containsAny(t, showKeywords) && containsAny(t, todayKeywords) {
				return true
			}
			return containsAny(t, showKeywords) && containsAny(t, weekdayNames)
		},
		target:     model.TargetWorkout,
		intent:     func(string) string { return model.IntentGetPlan },
		confidence: 0.8,
	},
	{
		name: "workout_history",
		match: func(t string) bool {
			if containsAny(t, []string{"migraine", "sleep", "health"}) {
				return false
			}
			return containsAny(t, workoutKeywords) &&
				containsAny(t, dateReferences) &&
				containsAny(t, historyPhrases)
		},
		target:     model.TargetWorkout,
		intent:     func(string) string { return model.IntentGetWorkouts },
		confidence: 0.8,
	},
	{
		name:       "overview",
		match:      func(t string) bool { return containsAny(t, overviewPhrase) },
		target:     model.TargetOverview,
		intent:     func(string) string { return model.IntentGetSummary },
		confidence: 0.7,
	},
	{
		// Default: anything else is treated as workout domain.
		name:       "workout_default",
		match:      func(string) bool { return true },
		target:     model.TargetWorkout,
		intent:     workoutIntent,
		confidence: 0.5,
	},
}

// Classify maps an utterance to a target domain, intent, and confidence.
// cleaned_text is the verbatim input; no normalization happens at this stage.
//
// If modeOverride is non-empty and not "auto", classification is skipped:
// the mode pins the target domain, the intent is inferred from keyword
// heuristics within that domain, and confidence is 1.0.
func Classify(text, modeOverride string) model.RouterResult {
	lower := strings.ToLower(text)

	if modeOverride != "" && modeOverride != "auto" {
		target := targetForMode(modeOverride)
		return model.RouterResult{
			Target:      target,
			Intent:      intentForTarget(target, lower),
			CleanedText: text,
			Confidence:  1.0,
		}
	}

	for _, r := range rules {
		if r.match(lower) {
			return model.RouterResult{
				Target:      r.target,
				Intent:      r.intent(lower),
				CleanedText: text,
				Confidence:  r.confidence,
			}
		}
	}

	// Unreachable: the default rule always matches. Kept so the compiler
	// does not depend on the table's contents.
	return model.RouterResult{
		Target:      model.TargetWorkout,
		Intent:      model.IntentLogWorkout,
		CleanedText: text,
		Confidence:  0.5,
	}
}

// targetForMode maps an explicit routing mode to a domain. "thor" is the
// legacy name for the workout agent and is kept for client compatibility.
func targetForMode(mode string) model.Target {
	switch strings.ToLower(mode) {
	case "nutrition":
		return model.TargetNutrition
	case "health":
		return model.TargetHealthLog
	case "overview":
		return model.TargetOverview
	default: // "thor", "workout"
		return model.TargetWorkout
	}
}

// intentForTarget infers an intent within an already-fixed domain.
func intentForTarget(target model.Target, lower string) string {
	switch target {
	case model.TargetHealthLog:
		return healthIntent(lower)
	case model.TargetNutrition:
		return nutritionIntent(lower)
	case model.TargetOverview:
		return model.IntentGetSummary
	default:
		if containsAny(lower, planPhrases) {
			return model.IntentGetPlan
		}
		return workoutIntent(lower)
	}
}

func healthIntent(lower string) string {
	if containsAny(lower, queryVerbs) {
		return model.IntentGetHealthEvents
	}
	if containsAny(lower, deleteVerbs) {
		return model.IntentDeleteHealthEvent
	}
	return model.IntentLogEvent
}

func nutritionIntent(lower string) string {
	if containsAny(lower, queryVerbs) {
		return model.IntentGetMeals
	}
	return model.IntentLogMeal
}

func workoutIntent(lower string) string {
	if containsAny(lower, queryVerbs) || containsAny(lower, historyPhrases) {
		return model.IntentGetWorkouts
	}
	if containsAny(lower, editKeywords) {
		return model.IntentUpdateWorkout
	}
	return model.IntentLogWorkout
}

// dateReferences is the date-reference vocabulary for history queries:
// weekday names plus relative references.
var dateReferences = append(append([]string{}, weekdayNames...), dateRefs...)

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
