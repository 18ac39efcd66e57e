package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studiora/backend/internal/model"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID            string `db:"id"`
	Email         string `db:"email"`
	Name          string `db:"name"`
	PasswordHash  string `db:"password_hash"`
	EmailVerified int    `db:"email_verified"`
	CreatedAt     string `db:"created_at"`
	UpdatedAt     string `db:"updated_at"`
}

func (r userRow) toModel() (*model.User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	return &model.User{
		ID:            r.ID,
		Email:         r.Email,
		Name:          r.Name,
		PasswordHash:  r.PasswordHash,
		EmailVerified: r.EmailVerified != 0,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

const userColumns = `id, email, name, password_hash, email_verified, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	verified := 0
	if user.EmailVerified {
		verified = 1
	}
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		verified,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.toModel()
}
