package cache

import (
	"container/list"
	"context"
	"sync"
)

// Cacher defines the caching interface.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// Memory is a bounded LRU cache in front of an optional backing Cacher.
// Hits from the backing cache are promoted into memory.
type Memory struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
	backing Cacher
}

type entry struct {
	key string
	val []byte
}

// NewMemory creates a cache holding at most maxEntries values. backing may be nil.
func NewMemory(maxEntries int, backing Cacher) *Memory {
	if maxEntries <= 0 {
		maxEntries = 128
	}
	return &Memory{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		backing: backing,
	}
}

func (m *Memory) GetCache(ctx context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	if el, ok := m.entries[key]; ok {
		m.order.MoveToFront(el)
		val := el.Value.(*entry).val
		m.mu.Unlock()
		return val, true
	}
	m.mu.Unlock()

	if m.backing == nil {
		return nil, false
	}
	val, ok := m.backing.GetCache(ctx, key)
	if ok {
		m.put(key, val)
	}
	return val, ok
}

func (m *Memory) SetCache(ctx context.Context, key string, val []byte) error {
	m.put(key, val)
	if m.backing != nil {
		return m.backing.SetCache(ctx, key, val)
	}
	return nil
}

// Len returns the number of entries held in memory.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) put(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		el.Value.(*entry).val = val
		m.order.MoveToFront(el)
		return
	}
	m.entries[key] = m.order.PushFront(&entry{key: key, val: val})
	for m.order.Len() > m.max {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*entry).key)
	}
}
