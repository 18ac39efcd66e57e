package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"studiora/backend/internal/model"
)

// PomodoroRepository keeps the study history written by the timer.
type PomodoroRepository struct {
	db *sqlx.DB
}

func NewPomodoroRepository(db *sqlx.DB) *PomodoroRepository {
	return &PomodoroRepository{db: db}
}

type pomodoroSessionRow struct {
	ID                     string `db:"id"`
	UserID                 string `db:"user_id"`
	Mode                   string `db:"mode"`
	PlannedDurationSeconds int    `db:"planned_duration_seconds"`
	ActualDurationSeconds  int    `db:"actual_duration_seconds"`
	StartedAt              string `db:"started_at"`
	EndedAt                string `db:"ended_at"`
	Status                 string `db:"status"`
	CreatedAt              string `db:"created_at"`
}

func (r pomodoroSessionRow) toModel() (model.PomodoroSession, error) {
	session := model.PomodoroSession{
		ID:                     r.ID,
		UserID:                 r.UserID,
		Mode:                   r.Mode,
		PlannedDurationSeconds: r.PlannedDurationSeconds,
		ActualDurationSeconds:  r.ActualDurationSeconds,
		Status:                 r.Status,
	}
	var err error
	if session.StartedAt, err = parseTime(r.StartedAt); err != nil {
		return session, fmt.Errorf("parse session started_at: %w", err)
	}
	if session.EndedAt, err = parseTime(r.EndedAt); err != nil {
		return session, fmt.Errorf("parse session ended_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return session, fmt.Errorf("parse session created_at: %w", err)
	}
	return session, nil
}

const sessionColumns = `id, user_id, mode, planned_duration_seconds, actual_duration_seconds,
	started_at, ended_at, status, created_at`

func (r *PomodoroRepository) InsertSession(ctx context.Context, session *model.PomodoroSession) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO pomodoro_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		session.ID,
		session.UserID,
		session.Mode,
		session.PlannedDurationSeconds,
		session.ActualDurationSeconds,
		formatTime(session.StartedAt),
		formatTime(session.EndedAt),
		session.Status,
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions returns the newest sessions first.
func (r *PomodoroRepository) ListSessions(ctx context.Context, userID string, limit int) ([]model.PomodoroSession, error) {
	var rows []pomodoroSessionRow
	if err := r.db.SelectContext(
		ctx,
		&rows,
		r.db.Rebind(`SELECT `+sessionColumns+`
		 FROM pomodoro_sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`),
		userID,
		limit,
	); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return toSessions(rows)
}

// ListSessionsSince returns sessions that started at or after since, oldest first.
func (r *PomodoroRepository) ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]model.PomodoroSession, error) {
	var rows []pomodoroSessionRow
	if err := r.db.SelectContext(
		ctx,
		&rows,
		r.db.Rebind(`SELECT `+sessionColumns+`
		 FROM pomodoro_sessions
		 WHERE user_id = ? AND started_at >= ?
		 ORDER BY started_at ASC`),
		userID,
		formatTime(since),
	); err != nil {
		return nil, fmt.Errorf("list sessions since: %w", err)
	}
	return toSessions(rows)
}

func toSessions(rows []pomodoroSessionRow) ([]model.PomodoroSession, error) {
	sessions := make([]model.PomodoroSession, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
