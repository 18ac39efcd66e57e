package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
)

const streakLookback = 90 * 24 * time.Hour

type SessionLister interface {
	ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]model.PomodoroSession, error)
}

// StatsService derives the dashboard statistics from timer history and tasks.
type StatsService struct {
	history SessionLister
	tasks   *TaskService
	now     func() time.Time
	log     *slog.Logger
}

func NewStatsService(history SessionLister, tasks *TaskService, logger *slog.Logger, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{history: history, tasks: tasks, now: now, log: logger}
}

func (s *StatsService) Get(ctx context.Context, userID string) (*model.StudyStats, *apperrors.APIError) {
	now := s.now().UTC()
	sessions, err := s.history.ListSessionsSince(ctx, userID, startOfDay(now).Add(-streakLookback))
	if err != nil {
		s.log.Error("list sessions for stats", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to compute stats")
	}

	summary, apiErr := s.tasks.Summary(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	stats := Summarize(sessions, now)
	stats.TasksCompleted = len(summary.Completed)
	stats.TasksTotal = summary.Total
	return &stats, nil
}

// Summarize computes the timer part of the statistics. Only focus intervals count.
func Summarize(sessions []model.PomodoroSession, now time.Time) model.StudyStats {
	var stats model.StudyStats

	today := startOfDay(now)
	weekStart := today.AddDate(0, 0, -weekdayIndex(today))
	weekSeconds := [7]int{}
	startedThisWeek, completedThisWeek := 0, 0
	activeDays := make(map[time.Time]bool)

	for _, session := range sessions {
		if session.Mode != "focus" {
			continue
		}
		day := startOfDay(session.StartedAt)
		completed := session.Status == model.SessionStatusCompleted
		if completed {
			activeDays[day] = true
		}

		if !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7)) {
			weekSeconds[weekdayIndex(day)] += session.ActualDurationSeconds
			startedThisWeek++
			if completed {
				completedThisWeek++
			}
		}
		if day.Equal(today) {
			stats.FocusSecondsToday += session.ActualDurationSeconds
			if completed {
				stats.SessionsToday++
			}
		}
	}

	total := 0
	for i, seconds := range weekSeconds {
		stats.WeeklyHours[i] = hours(seconds)
		total += seconds
	}
	stats.TotalHours = hours(total)
	if startedThisWeek > 0 {
		stats.FocusScore = completedThisWeek * 100 / startedThisWeek
	}

	day := today
	if !activeDays[day] {
		day = day.AddDate(0, 0, -1)
	}
	for activeDays[day] {
		stats.StreakDays++
		day = day.AddDate(0, 0, -1)
	}
	return stats
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekdayIndex maps Monday to 0 and Sunday to 6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func hours(seconds int) float64 {
	return math.Round(float64(seconds)/360) / 10
}
