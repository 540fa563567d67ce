package cache

import (
	"context"
	"time"
)

// Item represents a single item in cache and will contain the result of a
// single table read: either the matching records or a count.
type Item struct {
	Records []map[string]interface{}
	Count   int64
}

// Cacher represents a backend cache that can be used by the lazy table
// strategy.
type Cacher interface {
	// Get must return a pointer to the item, a boolean representing whether
	// item is present or not, and an error (must be nil when key is not
	// present).
	Get(ctx context.Context, key string) (*Item, bool, error)
	// Set sets the item into cache with the given TTL. A zero TTL means the
	// item does not expire.
	Set(ctx context.Context, key string, item *Item, ttl time.Duration) error
	// Del removes the key. Removing an absent key is not an error.
	Del(ctx context.Context, key string) error
}
