package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/thorfit/thor/internal/storage"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool("get_today_exercises",
			mcplib.WithDescription("Get the exercises scheduled on the workout plan for today. Returns a JSON array; empty means rest day."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
		),
		s.handleTodayExercises,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_day_exercises",
			mcplib.WithDescription("Get the exercises scheduled on the workout plan for a specific day of the week."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithNumber("day_of_week",
				mcplib.Description("Day of week, 1=Monday through 7=Sunday"),
				mcplib.Required(),
				mcplib.Min(1),
				mcplib.Max(7),
			),
		),
		s.handleDayExercises,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("log_workout",
			mcplib.WithDescription(`Log a completed workout from a freeform description, e.g.
"did floor press 3x10 @45 lbs and goblet squats 3x12". Each recognized
exercise becomes one log entry; unknown exercises and same-day duplicates
are skipped and reported.`),
			mcplib.WithString("text",
				mcplib.Description("Freeform description of the completed workout"),
				mcplib.Required(),
			),
			mcplib.WithNumber("day_of_week",
				mcplib.Description("Plan day to match against, 1=Monday through 7=Sunday. Defaults to today."),
				mcplib.Min(1),
				mcplib.Max(7),
			),
		),
		s.handleLogWorkout,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_recent_workouts",
			mcplib.WithDescription("Get the most recently logged workout entries, newest first."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of entries to return"),
				mcplib.Min(1),
				mcplib.Max(100),
				mcplib.DefaultNumber(10),
			),
		),
		s.handleRecentWorkouts,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("log_meal",
			mcplib.WithDescription("Log a meal. The description is stored verbatim; calorie analysis happens elsewhere."),
			mcplib.WithString("description",
				mcplib.Description("What was eaten"),
				mcplib.Required(),
			),
			mcplib.WithString("meal_type",
				mcplib.Description("breakfast, lunch, dinner, or snack. Inferred from time of day when omitted."),
			),
			mcplib.WithNumber("calories",
				mcplib.Description("Optional calorie estimate"),
			),
		),
		s.handleLogMeal,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_meals",
			mcplib.WithDescription("Get meals logged on a date."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("date",
				mcplib.Description("Date in YYYY-MM-DD form. Defaults to today."),
			),
		),
		s.handleGetMeals,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("log_health_event",
			mcplib.WithDescription("Log a health event such as a migraine, poor sleep, yardwork, or pain."),
			mcplib.WithString("description",
				mcplib.Description("What happened"),
				mcplib.Required(),
			),
			mcplib.WithString("event_type",
				mcplib.Description("migraine, sleep, yardwork, pain, or other"),
			),
		),
		s.handleLogHealthEvent,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_health_events",
			mcplib.WithDescription("Get recent health events, newest first."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("event_type",
				mcplib.Description("Filter by type: migraine, sleep, yardwork, pain, other. Omit for all types."),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of events to return"),
				mcplib.Min(1),
				mcplib.Max(100),
				mcplib.DefaultNumber(10),
			),
		),
		s.handleGetHealthEvents,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("delete_health_event",
			mcplib.WithDescription("Delete a health event by id, or the most recent event of a type when no id is given."),
			mcplib.WithDestructiveHintAnnotation(true),
			mcplib.WithString("id",
				mcplib.Description("Event UUID to delete"),
			),
			mcplib.WithString("event_type",
				mcplib.Description("When no id is given, delete the most recent event of this type. Omit for the most recent event of any type."),
			),
		),
		s.handleDeleteHealthEvent,
	)

	s.mcpServer.AddTool(
		mcplib.NewTool("get_summary",
			mcplib.WithDescription("Get the stored daily summary for a date."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("date",
				mcplib.Description("Date in YYYY-MM-DD form. Defaults to today."),
			),
		),
		s.handleGetSummary,
	)
}

func (s *Server) handleTodayExercises(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return s.dayExercisesResult(ctx, isoWeekday(s.now()))
}

func (s *Server) handleDayExercises(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	day := request.GetInt("day_of_week", 0)
	if day < 1 || day > 7 {
		return errorResult("day_of_week must be between 1 (Monday) and 7 (Sunday)"), nil
	}
	return s.dayExercisesResult(ctx, day)
}

func (s *Server) dayExercisesResult(ctx context.Context, day int) (*mcplib.CallToolResult, error) {
	exercises, err := s.catalog.DayExercises(ctx, s.catalog.PlanID(), day)
	if err != nil {
		return errorResult(fmt.Sprintf("fetch exercises failed: %v", err)), nil
	}
	if exercises == nil {
		return textResult("[]"), nil
	}
	data, _ := json.MarshalIndent(exercises, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleLogWorkout(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	text := request.GetString("text", "")
	if text == "" {
		return errorResult("text is required"), nil
	}
	now := s.now()
	day := request.GetInt("day_of_week", isoWeekday(now))
	if day < 1 || day > 7 {
		return errorResult("day_of_week must be between 1 (Monday) and 7 (Sunday)"), nil
	}

	result, err := s.ingestor.LogWorkoutText(ctx, text, day, now)
	if err != nil {
		return errorResult(fmt.Sprintf("log workout failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleRecentWorkouts(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	limit := request.GetInt("limit", 10)
	logs, err := s.store.RecentExerciseLogs(ctx, s.catalog.PlanID(), limit)
	if err != nil {
		return errorResult(fmt.Sprintf("fetch workouts failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{
		"workouts": logs,
		"total":    len(logs),
	}, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleLogMeal(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	description := request.GetString("description", "")
	if description == "" {
		return errorResult("description is required"), nil
	}
	now := s.now()
	mealType := request.GetString("meal_type", "")
	if mealType == "" {
		mealType = mealSlotForHour(now.Hour())
	}
	var calories *int
	if c := request.GetInt("calories", 0); c > 0 {
		calories = &c
	}

	meal, err := s.store.InsertMeal(ctx, mealType, description, calories, now)
	if err != nil {
		return errorResult(fmt.Sprintf("log meal failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(meal, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleGetMeals(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	date, err := s.dateArg(request, "date")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	meals, err := s.store.MealsByDate(ctx, date)
	if err != nil {
		return errorResult(fmt.Sprintf("fetch meals failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{
		"meals": meals,
		"total": len(meals),
	}, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleLogHealthEvent(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	description := request.GetString("description", "")
	if description == "" {
		return errorResult("description is required"), nil
	}
	eventType := request.GetString("event_type", "other")

	event, err := s.store.InsertHealthEvent(ctx, eventType, description, s.now())
	if err != nil {
		return errorResult(fmt.Sprintf("log health event failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(event, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleGetHealthEvents(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	eventType := request.GetString("event_type", "")
	limit := request.GetInt("limit", 10)

	events, err := s.store.RecentHealthEvents(ctx, eventType, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("fetch health events failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{
		"events": events,
		"total":  len(events),
	}, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleDeleteHealthEvent(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if idStr := request.GetString("id", ""); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid id: %v", err)), nil
		}
		if err := s.store.DeleteHealthEvent(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return errorResult("no such health event"), nil
			}
			return errorResult(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return textResult(fmt.Sprintf(`{"deleted":"%s"}`, id)), nil
	}

	eventType := request.GetString("event_type", "")
	event, err := s.store.DeleteLatestHealthEvent(ctx, eventType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResult("no matching health event to delete"), nil
		}
		return errorResult(fmt.Sprintf("delete failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(map[string]any{"deleted": event}, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleGetSummary(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	date, err := s.dateArg(request, "date")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	summary, err := s.store.DailySummaryByDate(ctx, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResult("no summary stored for that date"), nil
		}
		return errorResult(fmt.Sprintf("fetch summary failed: %v", err)), nil
	}
	data, _ := json.MarshalIndent(summary, "", "  ")
	return textResult(string(data)), nil
}

// dateArg parses an optional YYYY-MM-DD argument, defaulting to today.
func (s *Server) dateArg(request mcplib.CallToolRequest, key string) (time.Time, error) {
	raw := request.GetString(key, "")
	if raw == "" {
		return s.now(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected YYYY-MM-DD: %v", key, err)
	}
	return date, nil
}

// isoWeekday converts time.Weekday (Sunday=0) to 1=Monday .. 7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// mealSlotForHour infers a meal slot from the hour of day.
func mealSlotForHour(h int) string {
	switch {
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
