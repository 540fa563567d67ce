package tablecache

import (
	"context"
	"fmt"
	"time"

	"github.com/prashanthpai/tablecache/cache"

	"github.com/dgraph-io/ristretto"
)

// Ristretto implements cache.Cacher interface to use ristretto as an
// in-process backend for lazy tables.
type Ristretto struct {
	c *ristretto.Cache
}

// Get gets a cache item from ristretto. Returns pointer to the item, a boolean
// which represents whether key exists or not and an error.
func (r *Ristretto) Get(_ context.Context, key string) (*cache.Item, bool, error) {
	i, ok := r.c.Get(key)
	if !ok {
		return nil, false, nil
	}

	item, ok := i.(*cache.Item)
	if !ok {
		return nil, false, fmt.Errorf("Ristretto.Get(): i.(*cache.Item) failed")
	}

	return item, ok, nil
}

// Set sets the given item into ristretto with provided TTL duration.
func (r *Ristretto) Set(_ context.Context, key string, item *cache.Item, ttl time.Duration) error {
	// using # of records as cost, counts cost one
	cost := int64(len(item.Records))
	if cost == 0 {
		cost = 1
	}
	_ = r.c.SetWithTTL(key, item, cost, ttl)
	return nil
}

// Del removes key from ristretto.
func (r *Ristretto) Del(_ context.Context, key string) error {
	r.c.Del(key)
	return nil
}

// NewRistretto creates a new instance of ristretto backend wrapping the
// provided *ristretto.Cache instance. While creating the ristretto
// instance, please note that number of records will be used as "cost"
// (in ristretto's terminology) for each cache item.
func NewRistretto(c *ristretto.Cache) *Ristretto {
	return &Ristretto{
		c: c,
	}
}

// DefaultMaxCachedRecords bounds the ristretto cache created for lazy
// tables that were not given a backend.
const DefaultMaxCachedRecords = 10000

func newDefaultRistretto(maxRecords int64) (*Ristretto, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxRecords,
		MaxCost:     maxRecords,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return NewRistretto(c), nil
}

// Close stops ristretto's background goroutines. The backend must not be
// used afterwards.
func (r *Ristretto) Close() {
	r.c.Close()
}
