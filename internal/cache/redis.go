package cache

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Store backed by a redis hash per cache name. Entries are
// loaded when the store is opened and written back by Flush, mirroring the
// file store contract so runs see a stable snapshot.
type RedisStore struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	client  *redis.Client
	name    string
	isMap   bool
	entries map[string]string
}

// NewRedisStore opens the named cache, loading any entries previously
// flushed under the same name.
func NewRedisStore(log *logger.Logger, m *metrics.Metrics, client *redis.Client, name string, isMap bool) (*RedisStore, error) {
	s := &RedisStore{
		logger:  log,
		metrics: m,
		client:  client,
		name:    name,
		isMap:   isMap,
		entries: make(map[string]string),
	}

	loaded, err := client.HGetAll(context.Background(), s.hashKey()).Result()
	if err != nil {
		return nil, &IOError{Cache: name, Op: "load", Err: err}
	}
	for k, v := range loaded {
		s.entries[k] = v
	}
	return s, nil
}

// Contains reports whether the key exists in the cache
func (s *RedisStore) Contains(key string) bool {
	_, ok := s.entries[key]
	if ok {
		s.logger.WithCache(s.name).Debugf("hit for key %s", key)
	} else {
		s.logger.WithCache(s.name).Debugf("miss for key %s", key)
	}
	s.observe(ok)
	return ok
}

// Get returns the value for key and whether it was present
func (s *RedisStore) Get(key string) (string, bool) {
	v, ok := s.entries[key]
	s.observe(ok)
	return v, ok
}

func (s *RedisStore) observe(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.WithLabelValues(s.name).Inc()
	} else {
		s.metrics.CacheMisses.WithLabelValues(s.name).Inc()
	}
}

// Put adds an entry to the cache, plus the reverse pair for map caches
func (s *RedisStore) Put(key, value string) {
	s.entries[key] = value
	if s.isMap {
		s.entries[value] = key
	}
}

// Remove deletes the entry for key if present
func (s *RedisStore) Remove(key string) {
	delete(s.entries, key)
}

// Len returns the number of entries in the cache
func (s *RedisStore) Len() int {
	return len(s.entries)
}

// Flush writes every entry to the redis hash. A no-op when the cache is
// empty; safe to call more than once.
func (s *RedisStore) Flush() error {
	if len(s.entries) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(s.entries))
	for k, v := range s.entries {
		fields[k] = v
	}
	if err := s.client.HSet(context.Background(), s.hashKey(), fields).Err(); err != nil {
		return &IOError{Cache: s.name, Op: "flush", Err: err}
	}
	return nil
}

// Clear deletes the redis hash backing the cache
func (s *RedisStore) Clear() error {
	if err := s.client.Del(context.Background(), s.hashKey()).Err(); err != nil {
		return &IOError{Cache: s.name, Op: "clear", Err: err}
	}
	return nil
}

func (s *RedisStore) hashKey() string {
	return fmt.Sprintf("employee-sync:cache:%s", s.name)
}
