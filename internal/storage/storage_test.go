package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorfit/thor/internal/model"
	"github.com/thorfit/thor/internal/storage"
	"github.com/thorfit/thor/internal/testutil"
)

// testDB holds a shared test database connection for all tests in this package.
var testDB *storage.DB

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	db, err := tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}
	testDB = db
	defer testDB.Close()

	os.Exit(m.Run())
}

func newTestPlan(t *testing.T) model.Plan {
	t.Helper()
	plan, err := testDB.CreatePlan(context.Background(), "plan-"+uuid.NewString())
	require.NoError(t, err)
	return plan
}

func intPtr(n int) *int         { return &n }
func f64Ptr(f float64) *float64 { return &f }
func strPtr(s string) *string   { return &s }

func TestPlans(t *testing.T) {
	ctx := context.Background()
	plan := newTestPlan(t)

	got, err := testDB.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Name, got.Name)

	_, err = testDB.GetPlan(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byName, err := testDB.PlanByName(ctx, plan.Name)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, byName.ID)

	_, err = testDB.PlanByName(ctx, "no-such-plan")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for i, name := range []string{"Goblet Squat", "Floor Press"} {
		_, err := testDB.AddPlanExercise(ctx, model.Exercise{
			PlanID:    plan.ID,
			Name:      name,
			DayOfWeek: 1,
			Aliases:   []string{"alias-" + name},
			Position:  i,
		})
		require.NoError(t, err)
	}
	_, err = testDB.AddPlanExercise(ctx, model.Exercise{
		PlanID: plan.ID, Name: "Deadlift", DayOfWeek: 3, Position: 0,
	})
	require.NoError(t, err)

	monday, err := testDB.DayExercises(ctx, plan.ID, 1)
	require.NoError(t, err)
	require.Len(t, monday, 2)
	// Ordered by position.
	assert.Equal(t, "Goblet Squat", monday[0].Name)
	assert.Equal(t, []string{"alias-Goblet Squat"}, monday[0].Aliases)

	all, err := testDB.PlanExercises(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := testDB.DayExercises(ctx, plan.ID, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExerciseLogs(t *testing.T) {
	ctx := context.Background()
	plan := newTestPlan(t)
	logDate := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	logged, err := testDB.InsertExerciseLog(ctx, plan.ID, model.ParsedLog{
		Exercise:  "Floor Press",
		Sets:      intPtr(3),
		Reps:      intPtr(10),
		WeightLbs: f64Ptr(45),
		Notes:     strPtr("felt strong"),
	}, logDate)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, logged.ID)
	assert.Equal(t, "Floor Press", logged.Exercise)

	// Duplicate detection is case-insensitive on the exercise name.
	has, err := testDB.HasExerciseLogForDate(ctx, plan.ID, "floor press", logDate)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = testDB.HasExerciseLogForDate(ctx, plan.ID, "Floor Press", logDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, has)

	byDate, err := testDB.ExerciseLogsByDate(ctx, plan.ID, logDate)
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.NotNil(t, byDate[0].Sets)
	assert.Equal(t, 3, *byDate[0].Sets)
	require.NotNil(t, byDate[0].Notes)
	assert.Equal(t, "felt strong", *byDate[0].Notes)

	_, err = testDB.InsertExerciseLog(ctx, plan.ID, model.ParsedLog{Exercise: "Deadlift"},
		logDate.AddDate(0, 0, 1))
	require.NoError(t, err)

	recent, err := testDB.RecentExerciseLogs(ctx, plan.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Most recent log date first.
	assert.Equal(t, "Deadlift", recent[0].Exercise)
}

func TestMeals(t *testing.T) {
	ctx := context.Background()
	mealDate := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

	meal, err := testDB.InsertMeal(ctx, "lunch", "chicken salad", intPtr(550), mealDate)
	require.NoError(t, err)
	assert.Equal(t, "lunch", meal.MealType)
	require.NotNil(t, meal.Calories)
	assert.Equal(t, 550, *meal.Calories)

	_, err = testDB.InsertMeal(ctx, "snack", "apple", nil, mealDate)
	require.NoError(t, err)

	byDate, err := testDB.MealsByDate(ctx, mealDate)
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	recent, err := testDB.RecentMeals(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestHealthEvents(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 13, 8, 0, 0, 0, time.UTC)

	first, err := testDB.InsertHealthEvent(ctx, model.HealthEventMigraine, "migraine this morning", base)
	require.NoError(t, err)
	second, err := testDB.InsertHealthEvent(ctx, model.HealthEventMigraine, "migraine again", base.Add(4*time.Hour))
	require.NoError(t, err)
	_, err = testDB.InsertHealthEvent(ctx, model.HealthEventSleep, "slept badly", base.Add(time.Hour))
	require.NoError(t, err)

	migraines, err := testDB.RecentHealthEvents(ctx, model.HealthEventMigraine, 10)
	require.NoError(t, err)
	assert.Len(t, migraines, 2)

	all, err := testDB.RecentHealthEvents(ctx, "", 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 3)

	byDate, err := testDB.HealthEventsByDate(ctx, base)
	require.NoError(t, err)
	assert.Len(t, byDate, 3)

	// Deleting the latest migraine removes the most recent occurrence.
	deleted, err := testDB.DeleteLatestHealthEvent(ctx, model.HealthEventMigraine)
	require.NoError(t, err)
	assert.Equal(t, second.ID, deleted.ID)

	require.NoError(t, testDB.DeleteHealthEvent(ctx, first.ID))
	assert.ErrorIs(t, testDB.DeleteHealthEvent(ctx, first.ID), storage.ErrNotFound)

	_, err = testDB.DeleteLatestHealthEvent(ctx, model.HealthEventMigraine)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()

	// Unknown sessions read as empty history.
	history, err := testDB.SessionHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, history)

	turns := []model.ChatMessage{
		{Role: "user", Content: "log bench 3x10"},
		{Role: "assistant", Content: "Logged."},
	}
	require.NoError(t, testDB.SaveSessionHistory(ctx, sessionID, turns))

	history, err = testDB.SessionHistory(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "log bench 3x10", history[0].Content)

	// Saving again replaces the stored history.
	turns = append(turns, model.ChatMessage{Role: "user", Content: "thanks"})
	require.NoError(t, testDB.SaveSessionHistory(ctx, sessionID, turns))
	history, err = testDB.SessionHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	require.NoError(t, testDB.ResetSession(ctx, sessionID))
	history, err = testDB.SessionHistory(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDailySummaries(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	_, err := testDB.DailySummaryByDate(ctx, date)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	first, err := testDB.UpsertDailySummary(ctx, date, "Quiet day.", "none", "heuristic")
	require.NoError(t, err)

	// A rerun for the same date replaces the content, keeping one row.
	_, err = testDB.UpsertDailySummary(ctx, date, "Busy day after all.", "gpt-4o-mini", "openai")
	require.NoError(t, err)

	got, err := testDB.DailySummaryByDate(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Busy day after all.", got.Content)
	assert.Equal(t, "openai", got.Provider)
}
