package docfill

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// TemplateStore supplies template file bytes by file name. Returned slices must be treated
// as read-only.
type TemplateStore interface {
	Load(fileName string) ([]byte, error)
}

// StoreConfig contains configuration options for the template byte cache
type StoreConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// DirStore reads templates from a directory and caches their bytes.
type DirStore struct {
	dir    string
	config StoreConfig
	cache  *cache.Cache
	mu     sync.Mutex // serialises eviction
}

type cacheEntry struct {
	data   []byte
	loaded time.Time
}

// NewDirStore creates a store for dir using the global cache configuration
func NewDirStore(dir string) *DirStore {
	config := GetGlobalConfig()
	return NewDirStoreWithConfig(dir, StoreConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
}

// NewDirStoreWithConfig creates a store for dir with the given cache configuration
func NewDirStoreWithConfig(dir string, config StoreConfig) *DirStore {
	ttl, cleanup := config.TTL, config.TTL
	if ttl <= 0 {
		// no expiry and no janitor goroutine
		ttl, cleanup = cache.NoExpiration, 0
	}
	return &DirStore{
		dir:    dir,
		config: config,
		cache:  cache.New(ttl, cleanup),
	}
}

// Load returns the bytes of fileName, from the cache when possible.
func (s *DirStore) Load(fileName string) ([]byte, error) {
	if !filepath.IsLocal(fileName) {
		return nil, NewDocumentError("load", fileName, fmt.Errorf("%w: file name escapes the templates directory", ErrTemplateNotFound))
	}

	if s.config.MaxSize > 0 {
		if x, found := s.cache.Get(fileName); found {
			return x.(*cacheEntry).data, nil
		}
	}

	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewDocumentError("load", fileName, ErrTemplateNotFound)
		}
		return nil, NewDocumentError("load", fileName, err)
	}

	if s.config.MaxSize > 0 {
		s.put(fileName, data)
	}
	return data, nil
}

func (s *DirStore) put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.ItemCount() >= s.config.MaxSize {
		s.cache.DeleteExpired()
	}
	if s.cache.ItemCount() >= s.config.MaxSize {
		// evict the entry loaded first
		var oldestKey string
		var oldest time.Time
		for k, item := range s.cache.Items() {
			e := item.Object.(*cacheEntry)
			if oldestKey == "" || e.loaded.Before(oldest) {
				oldestKey, oldest = k, e.loaded
			}
		}
		s.cache.Delete(oldestKey)
	}
	s.cache.Set(key, &cacheEntry{data: data, loaded: time.Now()}, cache.DefaultExpiration)
}

// Invalidate drops fileName from the cache.
func (s *DirStore) Invalidate(fileName string) {
	s.cache.Delete(fileName)
}

// Clear empties the cache.
func (s *DirStore) Clear() {
	s.cache.Flush()
}

// Size returns the number of cached templates.
func (s *DirStore) Size() int {
	return s.cache.ItemCount()
}

// MemoryStore is a TemplateStore over an in-memory map, for tests and embedding.
type MemoryStore map[string][]byte

// Load returns the bytes stored under fileName.
func (m MemoryStore) Load(fileName string) ([]byte, error) {
	data, ok := m[fileName]
	if !ok {
		return nil, NewDocumentError("load", fileName, ErrTemplateNotFound)
	}
	return data, nil
}
