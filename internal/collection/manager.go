// Package collection holds ordered record collections in memory and mirrors
// every change to a Store as a full snapshot.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Options configures a Manager.
type Options[T any] struct {
	// ID extracts the immutable identifier of a record.
	ID func(T) string
	// Seed returns the records used when the store holds nothing yet.
	Seed   func() []T
	Logger *slog.Logger
	Name   string
}

// Manager owns an insertion-ordered collection. The in-memory copy is
// authoritative; the store is a mirror written after every mutation.
type Manager[T any] struct {
	mu    sync.RWMutex
	items []T
	store Store[T]
	id    func(T) string
	log   *slog.Logger
	dirty bool
}

// Open seeds the manager from the store, or from Options.Seed when the store
// is empty, in which case the seed is persisted right away.
func Open[T any](ctx context.Context, store Store[T], opts Options[T]) (*Manager[T], error) {
	if opts.ID == nil {
		return nil, fmt.Errorf("collection %s: id func is required", opts.Name)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager[T]{
		store: store,
		id:    opts.ID,
		log:   logger.With("collection", opts.Name),
	}

	items, found, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		m.items = items
		return m, nil
	}

	if opts.Seed != nil {
		m.items = opts.Seed()
	}
	m.persistLocked(ctx)
	return m, nil
}

func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// List returns the records accepted by match in insertion order. A nil match
// returns every record.
func (m *Manager[T]) List(match func(T) bool) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, 0, len(m.items))
	for _, item := range m.items {
		if match == nil || match(item) {
			out = append(out, item)
		}
	}
	return out
}

func (m *Manager[T]) Get(id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		var zero T
		return zero, ErrNotFound
	}
	return m.items[idx], nil
}

// Append adds item to the end of the collection.
func (m *Manager[T]) Append(ctx context.Context, item T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexLocked(m.id(item)) >= 0 {
		var zero T
		return zero, ErrDuplicate
	}
	m.items = append(m.items, item)
	m.persistLocked(ctx)
	return item, nil
}

// Update replaces the record with the result of mutate. Nothing changes when
// mutate fails or tries to alter the id.
func (m *Manager[T]) Update(ctx context.Context, id string, mutate func(current T) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	idx := m.indexLocked(id)
	if idx < 0 {
		return zero, ErrNotFound
	}

	updated, err := mutate(m.items[idx])
	if err != nil {
		return zero, err
	}
	if m.id(updated) != id {
		return zero, Invalid("id", "id is immutable")
	}

	m.items[idx] = updated
	m.persistLocked(ctx)
	return updated, nil
}

// Delete removes the record if present and reports whether it existed.
// Deleting an unknown id is not an error.
func (m *Manager[T]) Delete(ctx context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return false
	}

	next := make([]T, 0, len(m.items)-1)
	next = append(next, m.items[:idx]...)
	next = append(next, m.items[idx+1:]...)
	m.items = next
	m.persistLocked(ctx)
	return true
}

// Dirty reports whether the last write to the store failed, leaving the
// mirror behind the in-memory collection.
func (m *Manager[T]) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

func (m *Manager[T]) indexLocked(id string) int {
	for i, item := range m.items {
		if m.id(item) == id {
			return i
		}
	}
	return -1
}

func (m *Manager[T]) persistLocked(ctx context.Context) {
	snapshot := make([]T, len(m.items))
	copy(snapshot, m.items)

	if err := m.store.Save(ctx, snapshot); err != nil {
		m.dirty = true
		m.log.Error("persist collection snapshot", "error", err, "records", len(snapshot))
		return
	}
	m.dirty = false
}
