// Package cache holds short-lived read results for the API so a burst of
// identical requests costs one store query.
package cache

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
)

// ErrNoLoader is returned by GetOrLoad when called without a loader.
var ErrNoLoader = crerr.New("cache: loader is required")

// DefaultMaxEntries bounds a store created by NewStore.
const DefaultMaxEntries = 512

type entry[V any] struct {
	value   V
	expires time.Time
}

func (e entry[V]) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// Store is a TTL map with per-key load deduplication. Once it holds
// maxEntries values, expired ones are swept and, if it is still full, the
// new value is served without being kept.
type Store[V any] struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
	flight  singleflight.Group
}

// NewStore creates a store whose entries expire after ttl. ttl <= 0 keeps
// entries until they are evicted.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		entries:    make(map[string]entry[V]),
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !e.live(s.now()) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		for k, e := range s.entries {
			if !e.live(now) {
				delete(s.entries, k)
			}
		}
		if len(s.entries) >= s.maxEntries {
			return
		}
	}

	e := entry[V]{value: value}
	if s.ttl > 0 {
		e.expires = now.Add(s.ttl)
	}
	s.entries[key] = e
}

func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// GetOrLoad returns the cached value for key or runs loader once for all
// concurrent callers asking for the same key. Loader errors are not cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	if loader == nil {
		var zero V
		return zero, ErrNoLoader
	}
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	res, err, _ := s.flight.Do(key, func() (any, error) {
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
