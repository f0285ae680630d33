package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries caps the in-process store when no size is given.
const DefaultMemoryEntries = 10_000

// Memory is the in-process store used when redis is not configured. It holds at most size
// entries, evicting the least recently used, and sweeps entries older than maxAge in the
// background. Shorter per-key ttls are enforced on read.
type Memory struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory with size <= 0 uses DefaultMemoryEntries; maxAge <= 0 disables the sweep.
func NewMemory(size int, maxAge time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &Memory{
		lru: expirable.NewLRU[string, entry](size, nil, maxAge),
		now: time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set with ttl <= 0 keeps the entry until it is evicted or swept.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

// Len reports the entries currently held, including ones whose ttl passed but were not read.
func (m *Memory) Len() int { return m.lru.Len() }
