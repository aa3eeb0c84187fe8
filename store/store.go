package store

import (
	"context"
	"sync"
)

// KeyValueStore persists named blobs, each holding a whole collection.
// Every Save notifies the key's subscribers, including other readers in the
// same process, so views can refresh without polling.
type KeyValueStore interface {
	// Load returns the stored blob or nil when nothing has been saved under key
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key
	Save(ctx context.Context, key string, value []byte) error

	// Subscribe calls fn after every Save to key until cancel is called
	Subscribe(key string, fn func()) (cancel func())
}

func topicFor(key string) string {
	return "kv:" + key
}

// MemoryStore is an in-process KeyValueStore
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	hub  *Hub
}

// NewMemoryStore creates an empty in-memory store publishing on hub
func NewMemoryStore(hub *Hub) *MemoryStore {
	if hub == nil {
		hub = NewHub()
	}
	return &MemoryStore{
		data: make(map[string][]byte),
		hub:  hub,
	}
}

// Load returns a copy of the blob stored under key
func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Save stores a copy of value under key and notifies subscribers
func (m *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.data[key] = stored
	m.mu.Unlock()

	m.hub.Publish(topicFor(key))
	return nil
}

// Subscribe calls fn after every Save to key
func (m *MemoryStore) Subscribe(key string, fn func()) (cancel func()) {
	return m.hub.Subscribe(topicFor(key), fn)
}
