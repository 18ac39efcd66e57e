package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"studiora/backend/internal/model"
)

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

type groupRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Subject      string `db:"subject"`
	CreatedBy    string `db:"created_by"`
	CreatedAt    string `db:"created_at"`
	MembersCount int    `db:"members_count"`
}

func (r groupRow) toModel() (model.StudyGroup, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.StudyGroup{}, fmt.Errorf("parse group created_at: %w", err)
	}
	return model.StudyGroup{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Subject:      r.Subject,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    createdAt,
		MembersCount: r.MembersCount,
	}, nil
}

const groupSelect = `SELECT g.id, g.name, g.description, g.subject, g.created_by, g.created_at,
	(SELECT COUNT(1) FROM group_members m WHERE m.group_id = g.id) AS members_count
	FROM study_groups g`

func (r *GroupRepository) List(ctx context.Context) ([]model.StudyGroup, error) {
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, groupSelect+` ORDER BY g.created_at ASC`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]model.StudyGroup, 0, len(rows))
	for _, row := range rows {
		group, err := row.toModel()
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*model.StudyGroup, error) {
	var row groupRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(groupSelect+` WHERE g.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	group, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Create(ctx context.Context, group *model.StudyGroup) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO study_groups (id, name, description, subject, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		group.ID,
		group.Name,
		group.Description,
		group.Subject,
		group.CreatedBy,
		formatTime(group.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// AddMember returns ErrConflict when the user already belongs to the group.
func (r *GroupRepository) AddMember(ctx context.Context, member *model.GroupMember) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`),
		member.GroupID,
		member.UserID,
		formatTime(member.JoinedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}
