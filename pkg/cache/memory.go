package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store with LRU eviction. Suitable for
// single-server deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	max     int
	closed  bool
	done    chan struct{}
}

// memoryItem holds an entry in the LRU list.
type memoryItem struct {
	key   string
	entry *Entry
}

// MemoryStoreOption configures MemoryStore behavior.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	maxEntries      int
	janitorInterval time.Duration
	janitorMaxAge   time.Duration
}

// WithMaxEntries caps the number of entries. The least recently used
// entry is evicted when the cap is exceeded. Default: 1024.
func WithMaxEntries(n int) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.maxEntries = n
	}
}

// WithJanitor starts a background sweep that drops entries older than
// maxAge every interval. Without it entries live until evicted or
// deleted.
func WithJanitor(interval, maxAge time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.janitorInterval = interval
		c.janitorMaxAge = maxAge
	}
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	cfg := &memoryStoreConfig{
		maxEntries: 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &MemoryStore{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		max:     cfg.maxEntries,
		done:    make(chan struct{}),
	}
	if cfg.janitorInterval > 0 {
		go s.janitor(cfg.janitorInterval, cfg.janitorMaxAge)
	}
	return s
}

// Get returns the entry for key, or (nil, nil) if absent. A hit moves
// the entry to the front of the LRU order.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed{}
	}

	elem, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	s.order.MoveToFront(elem)

	// Copy so callers can't mutate the stored entry.
	entry := *elem.Value.(*memoryItem).entry
	return &entry, nil
}

// Set stores an entry, evicting from the LRU tail at capacity.
func (s *MemoryStore) Set(ctx context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	stored := *entry
	if elem, ok := s.entries[key]; ok {
		elem.Value.(*memoryItem).entry = &stored
		s.order.MoveToFront(elem)
		return nil
	}

	for s.order.Len() >= s.max {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoryItem).key)
	}

	s.entries[key] = s.order.PushFront(&memoryItem{key: key, entry: &stored})
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	if elem, ok := s.entries[key]; ok {
		s.order.Remove(elem)
		delete(s.entries, key)
	}
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed{}
	}

	s.entries = make(map[string]*list.Element)
	s.order = list.New()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the janitor and rejects further operations.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.entries = nil
	s.order = nil
	return nil
}

// janitor periodically drops entries older than maxAge.
func (s *MemoryStore) janitor(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(maxAge)
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	for elem := s.order.Back(); elem != nil; {
		prev := elem.Prev()
		item := elem.Value.(*memoryItem)
		if item.entry.GeneratedAt.Before(cutoff) {
			s.order.Remove(elem)
			delete(s.entries, item.key)
		}
		elem = prev
	}
}
