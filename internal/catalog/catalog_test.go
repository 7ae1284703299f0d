package catalog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorfit/thor/internal/model"
)

type countingSource struct {
	dayCalls  atomic.Int64
	planCalls atomic.Int64
	exercises []model.Exercise
	err       error
	delay     time.Duration
}

func (s *countingSource) DayExercises(ctx context.Context, planID uuid.UUID, dayOfWeek int) ([]model.Exercise, error) {
	s.dayCalls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.exercises, s.err
}

func (s *countingSource) PlanExercises(ctx context.Context, planID uuid.UUID) ([]model.Exercise, error) {
	s.planCalls.Add(1)
	return s.exercises, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDayExercises_CachesResult(t *testing.T) {
	planID := uuid.New()
	src := &countingSource{exercises: []model.Exercise{{Name: "Floor Press"}}}
	c := New(src, planID, time.Minute, testLogger())

	for range 5 {
		exercises, err := c.DayExercises(context.Background(), planID, 3)
		require.NoError(t, err)
		require.Len(t, exercises, 1)
	}
	assert.Equal(t, int64(1), src.dayCalls.Load())
}

func TestDayExercises_ConcurrentMissesDeduplicated(t *testing.T) {
	planID := uuid.New()
	src := &countingSource{
		exercises: []model.Exercise{{Name: "Goblet Squat"}},
		delay:     20 * time.Millisecond,
	}
	c := New(src, planID, time.Minute, testLogger())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.DayExercises(context.Background(), planID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), src.dayCalls.Load())
}

func TestDayExercises_Validation(t *testing.T) {
	planID := uuid.New()
	c := New(&countingSource{}, planID, time.Minute, testLogger())

	_, err := c.DayExercises(context.Background(), planID, 0)
	assert.Error(t, err)
	_, err = c.DayExercises(context.Background(), planID, 8)
	assert.Error(t, err)
	_, err = c.DayExercises(context.Background(), uuid.New(), 1)
	assert.Error(t, err)
}

func TestDayExercises_ErrorNotCached(t *testing.T) {
	planID := uuid.New()
	src := &countingSource{err: errors.New("db down")}
	c := New(src, planID, time.Minute, testLogger())

	_, err := c.DayExercises(context.Background(), planID, 2)
	require.Error(t, err)

	src.err = nil
	src.exercises = []model.Exercise{{Name: "Plank"}}
	exercises, err := c.DayExercises(context.Background(), planID, 2)
	require.NoError(t, err)
	assert.Len(t, exercises, 1)
}

func TestAllExercises_BypassesDayCache(t *testing.T) {
	planID := uuid.New()
	src := &countingSource{exercises: []model.Exercise{
		{Name: "Floor Press", DayOfWeek: 1},
		{Name: "Russian Twist", DayOfWeek: 5},
	}}
	c := New(src, planID, time.Minute, testLogger())

	for range 3 {
		all, err := c.AllExercises(context.Background())
		require.NoError(t, err)
		assert.Len(t, all, 2)
	}
	assert.Equal(t, int64(3), src.planCalls.Load())
	assert.Equal(t, int64(0), src.dayCalls.Load())
}
