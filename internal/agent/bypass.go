package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// dayNumbers maps weekday names and common abbreviations to the 1=Monday ..
// 7=Sunday numbering used by the exercise catalog.
var dayNumbers = map[string]int{
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3, "weds": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
	"sunday": 7, "sun": 7,
}

var (
	bypassWorkoutRe = regexp.MustCompile(`(?i)\b(workout|exercises?|lifts?|training|plan)\b`)
	bypassQueryRe   = regexp.MustCompile(`(?i)\b(what|what's|show|tell|list|which)\b`)
	bypassTodayRe   = regexp.MustCompile(`(?i)\btoday\b|\btonight\b|\btoday's\b`)

	// Mutating verbs disqualify the bypass: "log my workout for monday" is
	// an ingest, not a plan query.
	bypassMutatingRe = regexp.MustCompile(`(?i)\b(log|add|record|track|did|completed|finish(ed)?)\b`)

	// Generic "today's plan" patterns with no explicit date at all.
	genericPlanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(what's|what is)\s+(my|the)\s+(workout|plan)\s*\??\s*$`),
		regexp.MustCompile(`(?i)\b(workout|plan)\s+for\s+today\b`),
		regexp.MustCompile(`(?i)\btoday'?s\s+(workout|exercises|plan)\b`),
	}

	wordRe = regexp.MustCompile(`[a-z']+`)
)

// bypassDecision is the outcome of the BypassCheck state.
type bypassDecision struct {
	bypass    bool
	dayOfWeek int // 0 = use today's plan
}

// checkBypass pattern-matches a message against the fixed plan-query table.
// A named weekday plus workout and query keywords triggers a direct day
// fetch; a generic "today's plan" shape triggers a direct today fetch.
// Both skip the LLM entirely.
func checkBypass(message string) bypassDecision {
	if bypassMutatingRe.MatchString(message) {
		return bypassDecision{}
	}
	if !bypassWorkoutRe.MatchString(message) {
		return bypassDecision{}
	}

	if day := namedWeekday(message); day != 0 {
		if bypassQueryRe.MatchString(message) {
			return bypassDecision{bypass: true, dayOfWeek: day}
		}
		return bypassDecision{}
	}

	if bypassQueryRe.MatchString(message) && bypassTodayRe.MatchString(message) {
		return bypassDecision{bypass: true}
	}
	for _, re := range genericPlanPatterns {
		if re.MatchString(message) {
			return bypassDecision{bypass: true}
		}
	}
	return bypassDecision{}
}

// namedWeekday returns the day number of the first weekday word in the
// message, or 0 when none is named.
func namedWeekday(message string) int {
	for _, word := range wordRe.FindAllString(strings.ToLower(message), -1) {
		word = strings.TrimSuffix(word, "'s")
		word = strings.TrimSuffix(word, "'")
		if day, ok := dayNumbers[word]; ok {
			return day
		}
	}
	return 0
}

// renderPlan turns a day-exercises tool result into the deterministic bypass
// reply: one bullet line per exercise, or the rest-day message.
func renderPlan(content string) string {
	names := exerciseNames(content)
	if len(names) == 0 {
		return "Rest day! No exercises scheduled."
	}

	var b strings.Builder
	b.WriteString("Here's what's scheduled:\n")
	for _, name := range names {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// exerciseNames extracts names from a tool result that is either a JSON
// array of strings or an array of objects carrying a "name" field.
func exerciseNames(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var plain []string
	if err := json.Unmarshal([]byte(content), &plain); err == nil {
		return plain
	}

	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(content), &objects); err == nil {
		names := make([]string, 0, len(objects))
		for _, o := range objects {
			if o.Name != "" {
				names = append(names, o.Name)
			}
		}
		return names
	}
	return nil
}
