package backend

import (
	"sync"
	"time"
)

type beforeCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// beforeCache baseline images keyed by point. A nil cache is a no-op.
type beforeCache struct {
	ttl   time.Duration
	mu    sync.Mutex
	items map[string]beforeCacheEntry
	now   func() time.Time
}

func newBeforeCache(ttl time.Duration) *beforeCache {
	return &beforeCache{
		ttl:   ttl,
		items: make(map[string]beforeCacheEntry),
		now:   time.Now,
	}
}

func (bc *beforeCache) get(key string) ([]byte, bool) {
	if bc == nil {
		return nil, false
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	entry, ok := bc.items[key]
	if !ok {
		return nil, false
	}
	if bc.now().After(entry.expiresAt) {
		delete(bc.items, key)
		return nil, false
	}
	return entry.data, true
}

func (bc *beforeCache) put(key string, data []byte) {
	if bc == nil {
		return
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	now := bc.now()
	bc.items[key] = beforeCacheEntry{data: data, expiresAt: now.Add(bc.ttl)}
	// 期限切れを掃除
	for k, e := range bc.items {
		if now.After(e.expiresAt) {
			delete(bc.items, k)
		}
	}
}
