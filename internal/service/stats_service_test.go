package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/collection"
	"studiora/backend/internal/model"
	"studiora/backend/internal/repository"
)

func focusSession(started time.Time, seconds int, status string) model.PomodoroSession {
	return model.PomodoroSession{
		ID:                     started.Format(time.RFC3339Nano),
		UserID:                 "u1",
		Mode:                   "focus",
		PlannedDurationSeconds: 1500,
		ActualDurationSeconds:  seconds,
		StartedAt:              started,
		EndedAt:                started.Add(time.Duration(seconds) * time.Second),
		Status:                 status,
		CreatedAt:              started,
	}
}

func TestSummarize(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	sessions := []model.PomodoroSession{
		focusSession(monday.AddDate(0, 0, -3), 1500, model.SessionStatusCompleted),
		focusSession(monday, 3600, model.SessionStatusCompleted),
		focusSession(monday.AddDate(0, 0, 1), 1800, model.SessionStatusCompleted),
		focusSession(monday.AddDate(0, 0, 2), 1500, model.SessionStatusCompleted),
		focusSession(monday.AddDate(0, 0, 2).Add(time.Hour), 600, model.SessionStatusCancelled),
		{UserID: "u1", Mode: "short_break", ActualDurationSeconds: 300, StartedAt: monday, Status: model.SessionStatusCompleted},
	}

	stats := Summarize(sessions, now)

	assert.Equal(t, [7]float64{1, 0.5, 0.6, 0, 0, 0, 0}, stats.WeeklyHours)
	assert.Equal(t, 2.1, stats.TotalHours)
	assert.Equal(t, 1, stats.SessionsToday)
	assert.Equal(t, 2100, stats.FocusSecondsToday)
	assert.Equal(t, 3, stats.StreakDays)
	assert.Equal(t, 75, stats.FocusScore)
}

func TestSummarizeStreakCountsFromYesterday(t *testing.T) {
	now := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	sessions := []model.PomodoroSession{
		focusSession(now.AddDate(0, 0, -2), 1500, model.SessionStatusCompleted),
		focusSession(now.AddDate(0, 0, -1), 1500, model.SessionStatusCompleted),
	}

	assert.Equal(t, 2, Summarize(sessions, now).StreakDays)
	assert.Equal(t, 0, Summarize(nil, now).StreakDays)
}

func TestStatsServiceIncludesTasks(t *testing.T) {
	database := openTestDB(t)
	now := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	users := repository.NewUserRepository(database)
	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "u1@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}))

	history := repository.NewPomodoroRepository(database)
	session := focusSession(now.Add(-time.Hour), 1500, model.SessionStatusCompleted)
	require.NoError(t, history.InsertSession(ctx, &session))

	tasks := NewTaskService(collection.NewMemoryKV(), discardLogger())
	stats := NewStatsService(history, tasks, discardLogger(), func() time.Time { return now })

	result, apiErr := stats.Get(ctx, "u1")
	require.Nil(t, apiErr)
	assert.Equal(t, 1, result.SessionsToday)
	assert.Equal(t, 1, result.StreakDays)
	assert.Equal(t, 1, result.TasksCompleted)
	assert.Equal(t, 6, result.TasksTotal)
}
