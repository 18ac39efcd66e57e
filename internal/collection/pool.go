package collection

import (
	"context"
	"sync"
)

// OpenFunc opens the manager that belongs to owner.
type OpenFunc[T any] func(ctx context.Context, owner string) (*Manager[T], error)

// Pool keeps one Manager per owner, opened on first use.
type Pool[T any] struct {
	mu       sync.Mutex
	open     OpenFunc[T]
	managers map[string]*Manager[T]
}

func NewPool[T any](open OpenFunc[T]) *Pool[T] {
	return &Pool[T]{
		open:     open,
		managers: make(map[string]*Manager[T]),
	}
}

func (p *Pool[T]) Get(ctx context.Context, owner string) (*Manager[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if manager, ok := p.managers[owner]; ok {
		return manager, nil
	}
	manager, err := p.open(ctx, owner)
	if err != nil {
		return nil, err
	}
	p.managers[owner] = manager
	return manager, nil
}

// Release drops the cached manager. The next Get reloads it from its store.
func (p *Pool[T]) Release(owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.managers, owner)
}
