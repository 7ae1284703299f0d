package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckBypass_NamedWeekday(t *testing.T) {
	tests := []struct {
		message string
		day     int
	}{
		{"what's the workout for monday?", 1},
		{"show me tuesday's exercises", 2},
		{"which lifts on weds", 3},
		{"tell me thursday's plan", 4},
		{"what is the fri workout", 5},
		{"show saturday training", 6},
		{"what's sunday's workout", 7},
	}
	for _, tt := range tests {
		d := checkBypass(tt.message)
		assert.True(t, d.bypass, "message: %q", tt.message)
		assert.Equal(t, tt.day, d.dayOfWeek, "message: %q", tt.message)
	}
}

func TestCheckBypass_Today(t *testing.T) {
	for _, msg := range []string{
		"what's my workout today?",
		"show me today's exercises",
		"what is the plan",
		"workout for today",
	} {
		d := checkBypass(msg)
		assert.True(t, d.bypass, "message: %q", msg)
		assert.Zero(t, d.dayOfWeek, "message: %q", msg)
	}
}

func TestCheckBypass_Negative(t *testing.T) {
	for _, msg := range []string{
		"log my workout for monday",         // mutating
		"I did bench press today",           // mutating
		"what did I eat yesterday",          // no workout keyword
		"monday was rough",                  // weekday without query keyword
		"add squats to the plan for friday", // mutating
	} {
		assert.False(t, checkBypass(msg).bypass, "message: %q", msg)
	}
}

func TestRenderPlan(t *testing.T) {
	out := renderPlan(`[{"name":"Floor Press"},{"name":"Goblet Squat"}]`)
	assert.Equal(t, "Here's what's scheduled:\n- Floor Press\n- Goblet Squat", out)

	out = renderPlan(`["Plank","Russian Twist"]`)
	assert.Contains(t, out, "- Plank")
	assert.Contains(t, out, "- Russian Twist")

	assert.Equal(t, "Rest day! No exercises scheduled.", renderPlan(`[]`))
	assert.Equal(t, "Rest day! No exercises scheduled.", renderPlan(""))
	assert.Equal(t, "Rest day! No exercises scheduled.", renderPlan("not json"))
}
