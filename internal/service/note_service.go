package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"studiora/backend/internal/collection"
	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
)

const notesKey = "notes"

type NoteService struct {
	pool  *collection.Pool[model.Note]
	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

func NewNoteService(kv collection.KV, logger *slog.Logger, now func() time.Time) *NoteService {
	if now == nil {
		now = time.Now
	}
	s := &NoteService{now: now, newID: uuid.NewString, log: logger}
	s.pool = collection.NewPool(func(ctx context.Context, owner string) (*collection.Manager[model.Note], error) {
		return collection.Open[model.Note](ctx, collection.NewJSONStore[model.Note](kv, owner, notesKey), collection.Options[model.Note]{
			ID:     func(n model.Note) string { return n.ID },
			Seed:   func() []model.Note { return SeedNotes(s.now().UTC()) },
			Logger: logger.With("owner", owner),
			Name:   notesKey,
		})
	})
	return s
}

// SeedNotes is the sample notebook a new user starts with, dated relative to now.
func SeedNotes(now time.Time) []model.Note {
	day := 24 * time.Hour
	return []model.Note{
		{
			ID:        "note-1",
			Title:     "Biology Fundamentals",
			Content:   "Cell theory states that all living organisms are composed of cells, cells are the basic unit of structure and function in living things, and all cells come from pre-existing cells.",
			Category:  "Science",
			CreatedAt: now.Add(-7 * day),
			UpdatedAt: now.Add(-5 * day),
		},
		{
			ID:        "note-2",
			Title:     "Linear Algebra Overview",
			Content:   "A matrix is a rectangular array of numbers arranged in rows and columns. Matrix operations include addition, scalar multiplication, and matrix multiplication.",
			Category:  "Mathematics",
			CreatedAt: now.Add(-14 * day),
			UpdatedAt: now.Add(-2 * day),
		},
	}
}

// NoteFilter combines a case-insensitive search over title and content with
// an exact category match. Empty fields match everything.
type NoteFilter struct {
	Query    string
	Category string
}

func (f NoteFilter) match(n model.Note) bool {
	if f.Category != "" && n.Category != f.Category {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), query) ||
		strings.Contains(strings.ToLower(n.Content), query)
}

type NoteInput struct {
	Title    string
	Content  string
	Category string
}

// NotePatch carries the fields to overwrite; nil fields are kept.
type NotePatch struct {
	Title    *string
	Content  *string
	Category *string
}

func (s *NoteService) List(ctx context.Context, userID string, filter NoteFilter) ([]model.Note, *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	return notes.List(filter.match), nil
}

func (s *NoteService) Get(ctx context.Context, userID, id string) (model.Note, *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return model.Note{}, apiErr
	}
	note, err := notes.Get(id)
	if err != nil {
		return model.Note{}, collectionError(err, "note")
	}
	return note, nil
}

func (s *NoteService) Add(ctx context.Context, userID string, input NoteInput) (Change[model.Note], *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[model.Note]{}, apiErr
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Change[model.Note]{}, apperrors.Validation("title", "title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return Change[model.Note]{}, apperrors.Validation("content", "content is required")
	}

	now := s.now().UTC()
	note, err := notes.Append(ctx, model.Note{
		ID:        s.newID(),
		Title:     title,
		Content:   input.Content,
		Category:  categoryOrDefault(input.Category),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Change[model.Note]{}, collectionError(err, "note")
	}
	return Change[model.Note]{Value: note, Synced: !notes.Dirty()}, nil
}

// Update merges patch into the note and refreshes updatedAt, even for an
// empty patch. updatedAt never moves backwards.
func (s *NoteService) Update(ctx context.Context, userID, id string, patch NotePatch) (Change[model.Note], *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[model.Note]{}, apiErr
	}

	note, err := notes.Update(ctx, id, func(current model.Note) (model.Note, error) {
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return current, collection.Invalid("title", "title is required")
			}
			current.Title = title
		}
		if patch.Content != nil {
			if strings.TrimSpace(*patch.Content) == "" {
				return current, collection.Invalid("content", "content is required")
			}
			current.Content = *patch.Content
		}
		if patch.Category != nil {
			current.Category = categoryOrDefault(*patch.Category)
		}

		now := s.now().UTC()
		if now.Before(current.UpdatedAt) {
			now = current.UpdatedAt
		}
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return Change[model.Note]{}, collectionError(err, "note")
	}
	return Change[model.Note]{Value: note, Synced: !notes.Dirty()}, nil
}

// Delete removes the note. Deleting an unknown id succeeds with Value=false.
func (s *NoteService) Delete(ctx context.Context, userID, id string) (Change[bool], *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return Change[bool]{}, apiErr
	}
	deleted := notes.Delete(ctx, id)
	return Change[bool]{Value: deleted, Synced: !notes.Dirty()}, nil
}

// Categories lists every category in use, in order of first appearance.
func (s *NoteService) Categories(ctx context.Context, userID string) ([]string, *apperrors.APIError) {
	notes, apiErr := s.manager(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, note := range notes.List(nil) {
		if _, ok := seen[note.Category]; ok {
			continue
		}
		seen[note.Category] = struct{}{}
		categories = append(categories, note.Category)
	}
	return categories, nil
}

func (s *NoteService) Release(userID string) {
	s.pool.Release(userID)
}

func (s *NoteService) manager(ctx context.Context, userID string) (*collection.Manager[model.Note], *apperrors.APIError) {
	notes, err := s.pool.Get(ctx, userID)
	if err != nil {
		s.log.Error("open notebook", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to load notes")
	}
	return notes, nil
}

func categoryOrDefault(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return model.DefaultNoteCategory
	}
	return category
}
