package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
	"studiora/backend/internal/repository"
)

type GroupService struct {
	repo *repository.GroupRepository
	log  *slog.Logger
}

func NewGroupService(repo *repository.GroupRepository, logger *slog.Logger) *GroupService {
	return &GroupService{repo: repo, log: logger}
}

type GroupInput struct {
	Name        string
	Description string
	Subject     string
}

func (s *GroupService) List(ctx context.Context) ([]model.StudyGroup, *apperrors.APIError) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("list study groups", "error", err)
		return nil, apperrors.Internal("failed to load study groups")
	}
	return groups, nil
}

func (s *GroupService) Create(ctx context.Context, userID string, input GroupInput) (*model.StudyGroup, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	subject := strings.TrimSpace(input.Subject)
	if name == "" {
		return nil, apperrors.Validation("name", "name is required")
	}
	if subject == "" {
		return nil, apperrors.Validation("subject", "subject is required")
	}

	group := model.StudyGroup{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Subject:     subject,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &group); err != nil {
		s.log.Error("create study group", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to create study group")
	}
	return &group, nil
}

func (s *GroupService) Join(ctx context.Context, userID, groupID string) (*model.StudyGroup, *apperrors.APIError) {
	if _, err := s.repo.Get(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("not_found", "study group not found")
		}
		return nil, apperrors.Internal("failed to load study group")
	}

	err := s.repo.AddMember(ctx, &model.GroupMember{GroupID: groupID, UserID: userID, JoinedAt: time.Now().UTC()})
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperrors.Conflict("already_member", "already a member of this study group", nil)
	}
	if err != nil {
		s.log.Error("join study group", "user_id", userID, "group_id", groupID, "error", err)
		return nil, apperrors.Internal("failed to join study group")
	}

	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return nil, apperrors.Internal("failed to load study group")
	}
	return group, nil
}
