package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Key identifies a root search: the same variant, depth and position
// always yield the same result, so it can be memoized.
type Key struct {
	Variant string
	Depth   int
	Board   string
}

func (k Key) String() string {
	return fmt.Sprintf("book:%s:%d:%s", k.Variant, k.Depth, k.Board)
}

// Entry is a cached search result; Position is the caller-facing move
// coordinate and Value is from the mover's point of view.
type Entry struct {
	Position int `json:"position" bson:"position"`
	Value    int `json:"value" bson:"value"`
}

type Store interface {
	Lookup(ctx context.Context, key Key) (Entry, bool, error)
	Save(ctx context.Context, key Key, entry Entry) error
	Close(ctx context.Context) error
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (m *MemoryStore) Lookup(_ context.Context, key Key) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, key Key, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func encodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode book entry: %w", err)
	}
	return e, nil
}
