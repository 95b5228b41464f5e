package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/carecircle/backend/internal/metrics"
)

// Store is a TTL key/value cache
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type redisStore struct {
	rc *RedisClient
}

// NewRedisStore adapts a RedisClient to Store
func NewRedisStore(rc *RedisClient) Store {
	return &redisStore{rc: rc}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	return s.rc.Get(ctx, key)
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rc.SetEx(ctx, key, value, ttl)
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	return s.rc.Del(ctx, keys...)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return entry.value, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

// GetOrLoad returns the cached JSON value for key, or calls load and caches
// its result for ttl. Cache failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, store Store, name, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var value T
	if store != nil {
		raw, err := store.Get(ctx, key)
		if err == nil {
			if jsonErr := json.Unmarshal([]byte(raw), &value); jsonErr == nil {
				metrics.RecordCacheHit(name)
				return value, nil
			}
		} else if !errors.Is(err, ErrMiss) {
			metrics.RecordError("cache_get", name)
		}
		metrics.RecordCacheMiss(name)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if store != nil {
		if data, err := json.Marshal(value); err == nil {
			if err := store.Set(ctx, key, string(data), ttl); err != nil {
				metrics.RecordError("cache_set", name)
			}
		}
	}
	return value, nil
}
