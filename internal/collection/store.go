package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store mirrors a full collection. Load reports found=false when nothing was
// saved yet.
type Store[T any] interface {
	Load(ctx context.Context) (items []T, found bool, err error)
	Save(ctx context.Context, snapshot []T) error
}

// KV is the key-value persistence collaborator. Values are opaque snapshots
// keyed by owner and a fixed logical name such as "tasks" or "notes".
type KV interface {
	Get(ctx context.Context, owner, key string) ([]byte, bool, error)
	Put(ctx context.Context, owner, key string, value []byte) error
}

// JSONStore serializes a collection into a single KV entry.
type JSONStore[T any] struct {
	kv    KV
	owner string
	key   string
}

func NewJSONStore[T any](kv KV, owner, key string) *JSONStore[T] {
	return &JSONStore[T]{kv: kv, owner: owner, key: key}
}

func (s *JSONStore[T]) Load(ctx context.Context) ([]T, bool, error) {
	raw, found, err := s.kv.Get(ctx, s.owner, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.key, err)
	}
	if !found {
		return nil, false, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return items, true, nil
}

func (s *JSONStore[T]) Save(ctx context.Context, snapshot []T) error {
	if snapshot == nil {
		snapshot = []T{}
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.kv.Put(ctx, s.owner, s.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// MemoryKV keeps snapshots in process memory.
type MemoryKV struct {
	mu       sync.RWMutex
	values   map[string][]byte
	failPuts error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, owner, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[owner+"/"+key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, owner, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts != nil {
		return m.failPuts
	}
	m.values[owner+"/"+key] = append([]byte(nil), value...)
	return nil
}

// FailPuts makes every following Put return err; nil restores normal writes.
func (m *MemoryKV) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPuts = err
}
