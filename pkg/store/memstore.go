package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and ephemeral sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Record
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string]Record)}
}

func (m *MemStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns, ok := m.data[namespace]
	if !ok {
		return nil, ErrNotFound
	}
	rec, ok := ns[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(rec.Value))
	copy(out, rec.Value)
	return out, nil
}

func (m *MemStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string]Record)
		m.data[namespace] = ns
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	ns[key] = Record{Key: key, Value: stored, UpdatedAtMS: time.Now().UnixMilli()}
	return nil
}

func (m *MemStore) Delete(ctx context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ns, ok := m.data[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

func (m *MemStore) List(ctx context.Context, namespace string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns := m.data[namespace]
	out := make([]Record, 0, len(ns))
	for _, rec := range ns {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAtMS != out[j].UpdatedAtMS {
			return out[i].UpdatedAtMS > out[j].UpdatedAtMS
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (m *MemStore) Close() error { return nil }
