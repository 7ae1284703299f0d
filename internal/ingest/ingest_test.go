package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorfit/thor/internal/model"
)

type fakeParser struct {
	logs []model.ParsedLog
	err  error
}

func (f *fakeParser) Parse(ctx context.Context, text string, planID uuid.UUID, dayOfWeek int) ([]model.ParsedLog, error) {
	return f.logs, f.err
}

type fakeCatalog struct {
	planID    uuid.UUID
	exercises []model.Exercise
}

func (f *fakeCatalog) PlanID() uuid.UUID { return f.planID }

func (f *fakeCatalog) DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error) {
	return f.exercises, nil
}

type fakeStore struct {
	existing map[string]bool
	inserted []model.ParsedLog
	insErr   error
}

func (f *fakeStore) InsertExerciseLog(ctx context.Context, planID uuid.UUID, log model.ParsedLog, logDate time.Time) (model.ExerciseLog, error) {
	if f.insErr != nil {
		return model.ExerciseLog{}, f.insErr
	}
	f.inserted = append(f.inserted, log)
	return model.ExerciseLog{ID: uuid.New(), Exercise: log.Exercise, LogDate: logDate}, nil
}

func (f *fakeStore) HasExerciseLogForDate(ctx context.Context, planID uuid.UUID, exercise string, logDate time.Time) (bool, error) {
	return f.existing[exercise], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strp(s string) *string { return &s }

func dayCatalog() *fakeCatalog {
	return &fakeCatalog{
		planID: uuid.New(),
		exercises: []model.Exercise{
			{Name: "Floor Press", Aliases: []string{"flat press"}},
			{Name: "Goblet Squat", Aliases: []string{"squat"}},
		},
	}
}

func TestLogWorkoutText_LogsMatchedExercises(t *testing.T) {
	cat := dayCatalog()
	store := &fakeStore{}
	in := New(&fakeParser{logs: []model.ParsedLog{
		{Exercise: "floor press"},
		{Exercise: "squat", Notes: strp("felt heavy")},
	}}, cat, store, testLogger())

	result, err := in.LogWorkoutText(context.Background(), "did floor press and squats", 3, time.Now())
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	assert.Equal(t, model.IngestStatusLogged, result.Items[0].Status)
	assert.Equal(t, "Floor Press", result.Items[0].Exercise)
	require.NotNil(t, result.Items[0].LogID)

	// Alias match persists under the canonical name.
	assert.Equal(t, "Goblet Squat", result.Items[1].Exercise)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, "Goblet Squat", store.inserted[1].Exercise)
	assert.Equal(t, "felt heavy", *store.inserted[1].Notes)
}

func TestLogWorkoutText_SkipsUnknownExercise(t *testing.T) {
	cat := dayCatalog()
	store := &fakeStore{}
	in := New(&fakeParser{logs: []model.ParsedLog{
		{Exercise: "underwater basket weaving"},
		{Exercise: "floor press"},
	}}, cat, store, testLogger())

	result, err := in.LogWorkoutText(context.Background(), "stuff", 3, time.Now())
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, model.IngestStatusSkippedUnknown, result.Items[0].Status)
	assert.Nil(t, result.Items[0].LogID)
	assert.Equal(t, model.IngestStatusLogged, result.Items[1].Status)
	assert.Len(t, store.inserted, 1)
}

func TestLogWorkoutText_SkipsAlreadyLoggedToday(t *testing.T) {
	cat := dayCatalog()
	store := &fakeStore{existing: map[string]bool{"Floor Press": true}}
	in := New(&fakeParser{logs: []model.ParsedLog{
		{Exercise: "floor press"},
	}}, cat, store, testLogger())

	result, err := in.LogWorkoutText(context.Background(), "floor press again", 3, time.Now())
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, model.IngestStatusSkippedAlreadyDone, result.Items[0].Status)
	assert.Empty(t, store.inserted)
}

func TestLogWorkoutText_ParseErrorPropagates(t *testing.T) {
	in := New(&fakeParser{err: errors.New("llm unreachable")}, dayCatalog(), &fakeStore{}, testLogger())
	_, err := in.LogWorkoutText(context.Background(), "text", 3, time.Now())
	assert.Error(t, err)
}

func TestLogWorkoutText_InsertErrorAborts(t *testing.T) {
	in := New(&fakeParser{logs: []model.ParsedLog{{Exercise: "floor press"}}},
		dayCatalog(), &fakeStore{insErr: errors.New("db down")}, testLogger())
	_, err := in.LogWorkoutText(context.Background(), "text", 3, time.Now())
	assert.Error(t, err)
}
