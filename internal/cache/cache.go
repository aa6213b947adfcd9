package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
)

// Store is a named key/value cache used to remember which remote entities
// have already been resolved or created. A store configured as a map is
// bidirectional: inserting (k, v) also inserts (v, k).
type Store interface {
	Contains(key string) bool
	Get(key string) (string, bool)
	Put(key, value string)
	Remove(key string)
	Len() int
	Flush() error
	Clear() error
}

// IOError indicates the cache backing store could not be read or written.
// It is fatal to the run, not to a single record.
type IOError struct {
	Cache string
	Op    string
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s: %s failed: %v", e.Cache, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FileStore is a Store persisted to a local text file, one "key||value"
// line per entry. Entries are loaded when the store is opened and written
// back by Flush.
type FileStore struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	name    string
	dir     string
	isMap   bool
	entries map[string]string
}

// NewFileStore opens the named cache, loading any entries previously
// flushed under the same name in dir.
func NewFileStore(log *logger.Logger, m *metrics.Metrics, dir, name string, isMap bool) (*FileStore, error) {
	s := &FileStore{
		logger:  log,
		metrics: m,
		name:    name,
		dir:     dir,
		isMap:   isMap,
		entries: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Contains reports whether the key exists in the cache
func (s *FileStore) Contains(key string) bool {
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
func (s *FileStore) Get(key string) (string, bool) {
	v, ok := s.entries[key]
	s.observe(ok)
	return v, ok
}

func (s *FileStore) observe(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.WithLabelValues(s.name).Inc()
	} else {
		s.metrics.CacheMisses.WithLabelValues(s.name).Inc()
	}
}

// Put adds an entry to the cache. For map caches the reverse pair is
// inserted as well, overwriting any prior mapping for the value.
func (s *FileStore) Put(key, value string) {
	s.entries[key] = value
	if s.isMap {
		s.entries[value] = key
	}
}

// Remove deletes the entry for key if present
func (s *FileStore) Remove(key string) {
	delete(s.entries, key)
}

// Len returns the number of entries in the cache
func (s *FileStore) Len() int {
	return len(s.entries)
}

// Flush writes every entry to the backing file. A no-op when the cache is
// empty; safe to call more than once.
func (s *FileStore) Flush() error {
	if len(s.entries) == 0 {
		return nil
	}

	path := s.filePath()
	s.logger.WithCache(s.name).Debugf("writing %d cache entries to %s", len(s.entries), path)

	file, err := os.Create(path)
	if err != nil {
		return &IOError{Cache: s.name, Op: "flush", Err: err}
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for key, value := range s.entries {
		if _, err := fmt.Fprintf(writer, "%s||%s\n", key, value); err != nil {
			return &IOError{Cache: s.name, Op: "flush", Err: err}
		}
	}
	if err := writer.Flush(); err != nil {
		return &IOError{Cache: s.name, Op: "flush", Err: err}
	}
	return nil
}

// Clear deletes the backing file
func (s *FileStore) Clear() error {
	if err := os.Remove(s.filePath()); err != nil && !os.IsNotExist(err) {
		return &IOError{Cache: s.name, Op: "clear", Err: err}
	}
	return nil
}

func (s *FileStore) load() error {
	path := s.filePath()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &IOError{Cache: s.name, Op: "load", Err: err}
	}
	defer file.Close()

	s.logger.WithCache(s.name).Debugf("loading cache file %s", path)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := splitEntry(line)
		if len(parts) != 2 {
			continue
		}
		s.entries[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return &IOError{Cache: s.name, Op: "load", Err: err}
	}
	return nil
}

// splitEntry splits a cache line on the "||" separator, dropping empty
// fields the way the legacy cache files did.
func splitEntry(line string) []string {
	var parts []string
	for _, p := range strings.Split(line, "||") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (s *FileStore) filePath() string {
	return filepath.Join(s.dir, CacheFileName(s.name))
}

// CacheFileName builds the backing file name for a cache, stripping
// characters that are not valid in file names.
func CacheFileName(name string) string {
	var clean strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			continue
		}
		clean.WriteRune(r)
	}
	return clean.String() + ".txt"
}
