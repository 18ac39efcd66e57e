package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studiora/backend/internal/model"
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Replace drops any outstanding request for the user and stores the new one.
func (r *VerificationRepository) Replace(ctx context.Context, request *model.VerificationRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		tx.Rebind(`DELETE FROM verification_requests WHERE user_id = ?`),
		request.UserID,
	); err != nil {
		return fmt.Errorf("delete verification requests: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		tx.Rebind(`INSERT INTO verification_requests (token, user_id, email, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`),
		request.Token,
		request.UserID,
		request.Email,
		formatTime(request.CreatedAt),
		formatTime(request.ExpiresAt),
	); err != nil {
		return fmt.Errorf("insert verification request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification request: %w", err)
	}
	return nil
}

func (r *VerificationRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(
		ctx,
		&count,
		r.db.Rebind(`SELECT COUNT(1) FROM verification_requests WHERE user_id = ?`),
		userID,
	); err != nil {
		return 0, fmt.Errorf("count verification requests: %w", err)
	}
	return count, nil
}
