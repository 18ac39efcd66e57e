package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"studiora/backend/internal/collection"
	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
)

const tasksKey = "tasks"

type TaskService struct {
	pool  *collection.Pool[model.Task]
	newID func() string
	log   *slog.Logger
}

func NewTaskService(kv collection.KV, logger *slog.Logger) *TaskService {
	s := &TaskService{newID: uuid.NewString, log: logger}
	s.pool = collection.NewPool(func(ctx context.Context, owner string) (*collection.Manager[model.Task], error) {
		return collection.Open[model.Task](ctx, collection.NewJSONStore[model.Task](kv, owner, tasksKey), collection.Options[model.Task]{
			ID:     func(t model.Task) string { return t.ID },
			Seed:   SeedTasks,
			Logger: logger.With("owner", owner),
			Name:   tasksKey,
		})
	})
	return s
}

// SeedTasks is the sample list a new user starts with.
func SeedTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Complete math homework", DueDate: model.MustDate("2025-05-05"), Priority: model.PriorityHigh, Category: "Math"},
		{ID: "2", Title: "Read chapter 5", DueDate: model.MustDate("2025-05-03"), Priority: model.PriorityMedium, Category: "Science"},
		{ID: "3", Title: "Prepare study notes", Completed: true, Category: "History"},
		{ID: "4", Title: "Review for quiz", DueDate: model.MustDate("2025-05-10"), Priority: model.PriorityLow, Category: "English"},
		{ID: "5", Title: "Research paper outline", DueDate: model.MustDate("2025-05-12"), Priority: model.PriorityHigh, Category: "English"},
		{ID: "6", Title: "Code project", DueDate: model.MustDate("2025-05-15"), Priority: model.PriorityMedium, Category: "Computer Science"},
	}
}

type TaskFilter struct {
	Completed *bool
	Category  string
	Priority  model.Priority
	// Limit truncates the result, keeping pending tasks ahead of completed ones.
	Limit int
}

func (f TaskFilter) match(t model.Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

type TaskInput struct {
	Title    string
	DueDate  *model.Date
	Priority model.Priority
	Category string
}

// TaskPatch carries the fields to overwrite; nil fields are kept.
type TaskPatch struct {
	Title        *string
	Completed    *bool
	DueDate      *model.Date
	ClearDueDate bool
	Priority     *model.Priority
	Category     *string
}

func (s *TaskService) List(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperrors.Validation("priority", "priority must be one of low, medium, high")
	}

	matched := tasks.List(filter.match)
	if filter.Limit > 0 {
		matched = Compact(matched, filter.Limit)
	}
	return matched, nil
}

func (s *TaskService) Add(ctx context.Context, userID string, input TaskInput) (Change[model.Task], *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[model.Task]{}, apiErr
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Change[model.Task]{}, apperrors.Validation("title", "title is required")
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return Change[model.Task]{}, apperrors.Validation("priority", "priority must be one of low, medium, high")
	}

	task, err := tasks.Append(ctx, model.Task{
		ID:       s.newID(),
		Title:    title,
		DueDate:  input.DueDate,
		Priority: input.Priority,
		Category: strings.TrimSpace(input.Category),
	})
	if err != nil {
		return Change[model.Task]{}, collectionError(err, "task")
	}
	return Change[model.Task]{Value: task, Synced: !tasks.Dirty()}, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, patch TaskPatch) (Change[model.Task], *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[model.Task]{}, apiErr
	}

	task, err := tasks.Update(ctx, id, func(current model.Task) (model.Task, error) {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return current, collection.Invalid("title", "title is required")
			}
			current.Title = title
		}
		if patch.Priority != nil {
			if *patch.Priority != "" && !patch.Priority.Valid() {
				return current, collection.Invalid("priority", "priority must be one of low, medium, high")
			}
			current.Priority = *patch.Priority
		}
		if patch.Completed != nil {
			current.Completed = *patch.Completed
		}
		if patch.ClearDueDate {
			current.DueDate = nil
		} else if patch.DueDate != nil {
			due := *patch.DueDate
			current.DueDate = &due
		}
		if patch.Category != nil {
			current.Category = strings.TrimSpace(*patch.Category)
		}
		return current, nil
	})
	if err != nil {
		return Change[model.Task]{}, collectionError(err, "task")
	}
	return Change[model.Task]{Value: task, Synced: !tasks.Dirty()}, nil
}

// ToggleCompletion flips the completed flag.
func (s *TaskService) ToggleCompletion(ctx context.Context, userID, id string) (Change[model.Task], *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[model.Task]{}, apiErr
	}

	task, err := tasks.Update(ctx, id, func(current model.Task) (model.Task, error) {
		current.Completed = !current.Completed
		return current, nil
	})
	if err != nil {
		return Change[model.Task]{}, collectionError(err, "task")
	}
	if task.Completed {
		s.log.Debug("task completed", "user_id", userID, "task_id", id)
	}
	return Change[model.Task]{Value: task, Synced: !tasks.Dirty()}, nil
}

// Delete removes the task. Deleting an unknown id succeeds with Value=false.
func (s *TaskService) Delete(ctx context.Context, userID, id string) (Change[bool], *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[bool]{}, apiErr
	}
	deleted := tasks.Delete(ctx, id)
	return Change[bool]{Value: deleted, Synced: !tasks.Dirty()}, nil
}

func (s *TaskService) Summary(ctx context.Context, userID string) (model.TaskSummary, *apperrors.APIError) {
	tasks, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return model.TaskSummary{}, apiErr
	}
	all := tasks.List(nil)
	pending, completed := Partition(all)
	return model.TaskSummary{Pending: pending, Completed: completed, Total: len(all)}, nil
}

// Release drops the cached task list of a signed-out user.
func (s *TaskService) Release(userID string) {
	s.pool.Release(userID)
}

func (s *TaskService) manager(ctx context.Context, userID string) (*collection.Manager[model.Task], *apperrors.APIError) {
	tasks, err := s.pool.Get(ctx, userID)
	if err != nil {
		s.log.Error("open task list", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load tasks")
	}
	return tasks, nil
}

// Partition splits tasks into pending and completed, each in insertion order.
func Partition(tasks []model.Task) (pending, completed []model.Task) {
	pending = make([]model.Task, 0, len(tasks))
	completed = make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

// Compact keeps at most limit tasks, filling with pending tasks first.
func Compact(tasks []model.Task, limit int) []model.Task {
	if limit <= 0 || len(tasks) <= limit {
		return tasks
	}
	pending, completed := Partition(tasks)
	out := make([]model.Task, 0, limit)
	out = append(out, pending[:min(len(pending), limit)]...)
	out = append(out, completed[:min(len(completed), limit-len(out))]...)
	return out
}
