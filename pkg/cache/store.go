package cache

import (
	"context"
	"time"
)

// Entry is one cached render. Entries are stored and replaced as a
// whole; readers never observe a partial write.
type Entry struct {
	// Markup is the complete rendered document.
	Markup string `json:"markup"`

	// GeneratedAt is when the markup was rendered.
	GeneratedAt time.Time `json:"generated_at"`

	// Stale marks the entry as explicitly invalidated. The markup is
	// kept so it can still be served while a replacement renders.
	Stale bool `json:"stale"`
}

// Store defines the interface for render cache persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves an entry by key.
	// Returns (nil, nil) if the key doesn't exist.
	// Returns (entry, nil) if found.
	// Returns (nil, err) on backend errors.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores an entry, replacing any existing one atomically.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes an entry. Should not return an error if the key
	// doesn't exist.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed
// store.
type ErrStoreClosed struct{}

func (ErrStoreClosed) Error() string {
	return "cache store is closed"
}
