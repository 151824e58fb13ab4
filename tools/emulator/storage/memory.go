package storage

import (
	"context"
	"sync"
)

// Memory guarda os itens serializados em mapas, protegidos por um RWMutex.
type Memory struct {
	mu    sync.RWMutex
	items map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, ns, key string) (Item, error) {
	m.mu.RLock()
	raw, ok := m.items[ns][key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(raw)
}

func (m *Memory) PutMany(_ context.Context, ns string, items []Item) error {
	encoded := make([][]byte, len(items))
	for i, item := range items {
		b, err := encode(item)
		if err != nil {
			return err
		}
		encoded[i] = b
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(ns)
	for i, item := range items {
		bucket[KeyOf(item)] = encoded[i]
	}
	return nil
}

func (m *Memory) Insert(_ context.Context, ns string, item Item) error {
	b, err := encode(item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(ns)
	key := KeyOf(item)
	if _, ok := bucket[key]; ok {
		return ErrExists
	}
	bucket[key] = b
	return nil
}

func (m *Memory) Update(_ context.Context, ns, key string, fn func(Item) error) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.items[ns][key]
	if !ok {
		return nil, ErrNotFound
	}
	item, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	b, err := encode(item)
	if err != nil {
		return nil, err
	}
	m.items[ns][key] = b
	return item, nil
}

func (m *Memory) Delete(_ context.Context, ns, key string) error {
	m.mu.Lock()
	delete(m.items[ns], key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Len devolve o número de itens no namespace.
func (m *Memory) Len(ns string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items[ns])
}

// bucket exige m.mu travado para escrita.
func (m *Memory) bucket(ns string) map[string][]byte {
	b, ok := m.items[ns]
	if !ok {
		b = make(map[string][]byte)
		m.items[ns] = b
	}
	return b
}
