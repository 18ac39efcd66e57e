package model

import "time"

const (
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// PomodoroSession is one finished countdown in a user's study history.
type PomodoroSession struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"userId"`
	Mode                   string    `json:"mode"`
	PlannedDurationSeconds int       `json:"plannedDurationSeconds"`
	ActualDurationSeconds  int       `json:"actualDurationSeconds"`
	StartedAt              time.Time `json:"startedAt"`
	EndedAt                time.Time `json:"endedAt"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
}

type StudyStats struct {
	WeeklyHours       [7]float64 `json:"weeklyHours"`
	TotalHours        float64    `json:"totalHours"`
	StreakDays        int        `json:"streakDays"`
	SessionsToday     int        `json:"sessionsToday"`
	FocusSecondsToday int        `json:"focusSecondsToday"`
	TasksCompleted    int        `json:"tasksCompleted"`
	TasksTotal        int        `json:"tasksTotal"`
	FocusScore        int        `json:"focusScore"`
}
