package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies to any Set whose caller does not supply an expiry.
const DefaultTTL = 24 * time.Hour

// A Cacher stores opaque blobs paired to keys for bounded lengths of time.
//
// Every operation is best-effort: a Cacher never returns an error
// and never blocks a caller's success path on a backend's availability.
type Cacher interface {
	// Get retrieves the value paired to key, reporting whether one was found.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set pairs value to key for ttl, associating the entry with each tag.
	// A ttl of zero or less applies DefaultTTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string)

	// Delete removes the value paired to key.
	Delete(ctx context.Context, key string)

	// InvalidateTag removes every entry associated with tag.
	// A tag matching zero entries is a no-op.
	InvalidateTag(ctx context.Context, tag string)
}

var _ Cacher = (*MemoryCache)(nil)

// A MemoryCache stores entries in a map guarded by a mutex.
//
// Server restarts reset a MemoryCache.
// It backs deployments that do not configure a remote cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
	tags      map[string]struct{}
}

// NewMemoryCache initializes a MemoryCache ready for use.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memEntry)}
}

// Get retrieves the value paired to key much like a regular map,
// treating an expired entry as absent.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	select {
	case <-ctx.Done():
		return nil, false

	default:
		m.mu.Lock()
		defer m.mu.Unlock()

		e, ok := m.entries[key]
		if !ok || time.Now().After(e.expiresAt) {
			return nil, false
		}

		return e.value, true
	}
}

// Set overwrites the value paired to key.
//
// For each call to Set, expired entries are evicted.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) {
	select {
	case <-ctx.Done():
		return

	default:
		if ttl <= 0 {
			ttl = DefaultTTL
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		now := time.Now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}

		e := memEntry{value: value, expiresAt: now.Add(ttl)}
		if len(tags) > 0 {
			e.tags = make(map[string]struct{}, len(tags))
			for _, t := range tags {
				e.tags[t] = struct{}{}
			}
		}

		m.entries[key] = e
	}
}

// Delete removes the value paired to key.
func (m *MemoryCache) Delete(ctx context.Context, key string) {
	select {
	case <-ctx.Done():
		return

	default:
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.entries, key)
	}
}

// InvalidateTag removes every entry associated with tag.
func (m *MemoryCache) InvalidateTag(ctx context.Context, tag string) {
	select {
	case <-ctx.Done():
		return

	default:
		m.mu.Lock()
		defer m.mu.Unlock()

		for k, e := range m.entries {
			if _, ok := e.tags[tag]; ok {
				delete(m.entries, k)
			}
		}
	}
}

// Probe reports whether the MemoryCache can serve requests; it always can.
func (m *MemoryCache) Probe(ctx context.Context) error { return nil }
