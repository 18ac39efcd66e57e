// Package events is a small synchronous publish/subscribe hub.
package events

import "sync"

// Hub delivers every published event to the listeners registered at publish time.
type Hub[E any] struct {
	mu        sync.RWMutex
	listeners map[int]func(E)
	nextID    int
}

func NewHub[E any]() *Hub[E] {
	return &Hub[E]{listeners: make(map[int]func(E))}
}

// Subscribe registers listener and returns the function that removes it.
func (h *Hub[E]) Subscribe(listener func(E)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = listener
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Publish calls each listener in turn on the caller's goroutine.
func (h *Hub[E]) Publish(event E) {
	h.mu.RLock()
	listeners := make([]func(E), 0, len(h.listeners))
	for _, listener := range h.listeners {
		listeners = append(listeners, listener)
	}
	h.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}
