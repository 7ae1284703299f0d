package dispatch

import (
	"regexp"
	"strings"
	"time"

	"github.com/thorfit/thor/internal/model"
)

// isoWeekday converts time.Weekday (Sunday=0) to the 1=Monday .. 7=Sunday
// numbering used by the exercise catalog.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

var weekdayNumbers = map[string]int{
	"monday": 1, "tuesday": 2, "wednesday": 3, "thursday": 4,
	"friday": 5, "saturday": 6, "sunday": 7,
}

var weekdayWordRe = regexp.MustCompile(`[a-z]+`)

// namedWeekday returns the day number of the first full weekday name in the
// text, or 0 when none is named.
func namedWeekday(text string) int {
	for _, word := range weekdayWordRe.FindAllString(strings.ToLower(text), -1) {
		if day, ok := weekdayNumbers[word]; ok {
			return day
		}
	}
	return 0
}

// inferMealType picks the meal slot from an explicit keyword, falling back
// to the time of day.
func inferMealType(text string, now time.Time) string {
	lower := strings.ToLower(text)
	for _, mt := range []string{"breakfast", "lunch", "dinner", "snack"} {
		if strings.Contains(lower, mt) {
			return mt
		}
	}
	switch h := now.Hour(); {
	case h < 11:
		return "breakfast"
	case h < 15:
		return "lunch"
	case h < 21:
		return "dinner"
	default:
		return "snack"
	}
}

// inferEventType classifies a health utterance by keyword; anything
// unrecognized is stored as "other".
func inferEventType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "migraine") || strings.Contains(lower, "headache"):
		return model.HealthEventMigraine
	case strings.Contains(lower, "sleep") || strings.Contains(lower, "slept") || strings.Contains(lower, "insomnia"):
		return model.HealthEventSleep
	case strings.Contains(lower, "yardwork") || strings.Contains(lower, "yard work") || strings.Contains(lower, "mowed"):
		return model.HealthEventYardwork
	case strings.Contains(lower, "pain") || strings.Contains(lower, "sore") || strings.Contains(lower, "ache") || strings.Contains(lower, "hurt"):
		return model.HealthEventPain
	default:
		return model.HealthEventOther
	}
}

// inferEventFilter is inferEventType for queries: no keyword means no
// filter, not "other".
func inferEventFilter(text string) string {
	t := inferEventType(text)
	if t == model.HealthEventOther {
		return ""
	}
	return t
}
