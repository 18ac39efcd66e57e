package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"studiora/backend/internal/model"
)

// SessionRepository stores issued auth sessions so tokens can be revoked.
type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	CreatedAt string         `db:"created_at"`
	ExpiresAt string         `db:"expires_at"`
	RevokedAt sql.NullString `db:"revoked_at"`
}

func (r *SessionRepository) Create(ctx context.Context, session *model.AuthSession) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO auth_sessions (id, user_id, created_at, expires_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?)`),
		session.ID,
		session.UserID,
		formatTime(session.CreatedAt),
		formatTime(session.ExpiresAt),
		formatNullTime(session.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*model.AuthSession, error) {
	var row sessionRow
	err := r.db.GetContext(
		ctx,
		&row,
		r.db.Rebind(`SELECT id, user_id, created_at, expires_at, revoked_at FROM auth_sessions WHERE id = ?`),
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	session := model.AuthSession{ID: row.ID, UserID: row.UserID}
	if session.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	if session.ExpiresAt, err = parseTime(row.ExpiresAt); err != nil {
		return nil, fmt.Errorf("parse session expires_at: %w", err)
	}
	if session.RevokedAt, err = parseNullTime(row.RevokedAt); err != nil {
		return nil, fmt.Errorf("parse session revoked_at: %w", err)
	}
	return &session, nil
}

// Revoke marks the session as signed out. Revoking twice keeps the first timestamp.
func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE auth_sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`),
		formatTime(at),
		id,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive counts the user's sessions that are neither revoked nor expired at now.
func (r *SessionRepository) CountActive(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(
		ctx,
		&count,
		r.db.Rebind(`SELECT COUNT(*) FROM auth_sessions
		 WHERE user_id = ? AND revoked_at IS NULL AND expires_at > ?`),
		userID,
		formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}
