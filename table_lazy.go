package tablecache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/prashanthpai/tablecache/cache"
	"github.com/prashanthpai/tablecache/table"
)

// LazyConfig is the configuration passed to NewLazyTable.
type LazyConfig struct {
	// Storage and Table are required.
	Storage    table.Storage
	Table      string
	PrimaryKey table.PrimaryKey
	// Cache is the backend holding read results. When nil the table creates
	// a private ristretto cache holding up to DefaultMaxCachedRecords records
	// and closes it on Destroy.
	Cache cache.Cacher
	// TTL of every cached read. Zero means entries only go away when the
	// table is written or the backend evicts them.
	TTL time.Duration
	// KeyFunc can be optionally set to provide custom cache keys. By default
	// keys are mitchellh/hashstructure hashes of the read.
	KeyFunc KeyFunc
	// OnError is called whenever the cache backend or KeyFunc fails. Such
	// failures never fail the read itself; the read goes to storage instead.
	OnError func(error)
}

// LazyStats contains lazy table cache statistics.
type LazyStats struct {
	Hits   uint64
	Misses uint64
	Errors uint64
}

// LazyTable caches read results on demand. Every read is keyed by the
// table's current generation; every write bumps the generation, so results
// cached before the write are never served again.
type LazyTable struct {
	storage    table.Storage
	name       string
	primaryKey table.PrimaryKey
	c          cache.Cacher
	owned      *Ristretto
	ttl        time.Duration
	keyFunc    KeyFunc
	onErr      func(error)
	loads      singleflight.Group

	generation uint64
	stats      LazyStats
	destroyed  int32
}

// NewLazyTable returns a lazy table initialised with the provided config.
func NewLazyTable(config *LazyConfig) (*LazyTable, error) {
	if config == nil {
		return nil, fmt.Errorf("config can't be nil")
	}
	if config.Storage == nil {
		return nil, fmt.Errorf("storage must be set in LazyConfig")
	}
	if config.Table == "" {
		return nil, fmt.Errorf("table must be set in LazyConfig")
	}

	t := &LazyTable{
		storage:    config.Storage,
		name:       config.Table,
		primaryKey: config.PrimaryKey,
		c:          config.Cache,
		ttl:        config.TTL,
		keyFunc:    config.KeyFunc,
		onErr:      config.OnError,
		generation: uint64(time.Now().UnixNano()),
	}
	if len(t.primaryKey) == 0 {
		t.primaryKey = table.DefaultPrimaryKey
	}
	if t.keyFunc == nil {
		t.keyFunc = defaultKeyFunc
	}
	if t.c == nil {
		r, err := newDefaultRistretto(DefaultMaxCachedRecords)
		if err != nil {
			return nil, err
		}
		t.c = r
		t.owned = r
	}
	return t, nil
}

// Stats returns lazy table cache stats.
func (t *LazyTable) Stats() *LazyStats {
	return &LazyStats{
		Hits:   atomic.LoadUint64(&t.stats.Hits),
		Misses: atomic.LoadUint64(&t.stats.Misses),
		Errors: atomic.LoadUint64(&t.stats.Errors),
	}
}

func (t *LazyTable) check() error {
	if atomic.LoadInt32(&t.destroyed) == 1 {
		return table.ErrDestroyed
	}
	return nil
}

func (t *LazyTable) fail(err error) {
	atomic.AddUint64(&t.stats.Errors, 1)
	if t.onErr != nil {
		t.onErr(err)
	}
}

// invalidate orphans every cached read. Writes call it whether or not
// storage reported success since a failed write may have partially applied.
func (t *LazyTable) invalidate() {
	atomic.AddUint64(&t.generation, 1)
}

// cached returns the item for the read identified by kind and args, loading
// and storing it on a miss. Concurrent misses on one key share a single
// load, so the returned item must not be modified.
func (t *LazyTable) cached(ctx context.Context, kind string, args interface{}, load func() (*cache.Item, error)) (*cache.Item, error) {
	gen := atomic.LoadUint64(&t.generation)
	key, err := t.keyFunc(t.name, gen, kind, args)
	if err != nil {
		t.fail(fmt.Errorf("KeyFunc failed: %w", err))
		return load()
	}

	item, ok, err := t.c.Get(ctx, key)
	if err != nil {
		t.fail(fmt.Errorf("Cache.Get failed: %w", err))
		return load()
	}
	if ok && item != nil {
		atomic.AddUint64(&t.stats.Hits, 1)
		return item, nil
	}
	atomic.AddUint64(&t.stats.Misses, 1)

	v, err, _ := t.loads.Do(key, func() (interface{}, error) {
		item, err := load()
		if err != nil {
			return nil, err
		}
		if err := t.c.Set(ctx, key, item, t.ttl); err != nil {
			t.fail(fmt.Errorf("Cache.Set failed: %w", err))
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Item), nil
}

func (t *LazyTable) selectItem(ctx context.Context, q table.Query) func() (*cache.Item, error) {
	return func() (*cache.Item, error) {
		records, err := t.storage.Select(ctx, t.name, q)
		if err != nil {
			return nil, err
		}
		item := &cache.Item{
			Records: make([]map[string]interface{}, 0, len(records)),
		}
		for _, r := range records {
			item.Records = append(item.Records, r.Normalize())
		}
		return item, nil
	}
}

// records copies cached records out so that callers never share memory with
// an in-process backend. Values decoded by msgpack come back as the
// narrowest integer type and are widened again.
func records(item *cache.Item) []table.Record {
	out := make([]table.Record, 0, len(item.Records))
	for _, r := range item.Records {
		out = append(out, table.Record(r).Normalize())
	}
	return out
}

func (t *LazyTable) Initialize(ctx context.Context) error {
	return t.check()
}

func (t *LazyTable) Destroy(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&t.destroyed, 0, 1) {
		return nil
	}
	t.invalidate()
	if t.owned != nil {
		t.owned.Close()
	}
	return nil
}

func (t *LazyTable) GetMany(ctx context.Context, conds table.Conditions, opts *table.Options) ([]table.Record, error) {
	q := table.Query{Where: conds.Where()}
	if opts != nil {
		q.Options = *opts
	}
	return t.GetManyWhere(ctx, q)
}

func (t *LazyTable) GetManyWhere(ctx context.Context, q table.Query) ([]table.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	item, err := t.cached(ctx, "where", q, t.selectItem(ctx, q))
	if err != nil {
		return nil, err
	}
	return records(item), nil
}

func (t *LazyTable) getOne(ctx context.Context, kind string, args interface{}, q table.Query) (table.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	q.Limit = 1
	item, err := t.cached(ctx, kind, args, t.selectItem(ctx, q))
	if err != nil {
		return nil, err
	}
	if len(item.Records) == 0 {
		return nil, table.ErrNotFound
	}
	return table.Record(item.Records[0]).Normalize(), nil
}

func (t *LazyTable) GetOne(ctx context.Context, conds table.Conditions, sort ...table.Order) (table.Record, error) {
	q := table.Query{
		Where:   conds.Where(),
		Options: table.Options{Sort: sort},
	}
	return t.getOne(ctx, "one", q, q)
}

func (t *LazyTable) GetOneByPrimaryKey(ctx context.Context, key table.Record) (table.Record, error) {
	conds, err := t.primaryKey.Conditions(key)
	if err != nil {
		return nil, err
	}
	return t.getOne(ctx, "pk", conds, table.Query{Where: conds.Where()})
}

// Reduce is not cached: reducers carry functions that cannot be keyed.
func (t *LazyTable) Reduce(ctx context.Context, r table.Reducer, conds table.Conditions) (interface{}, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.storage.Reduce(ctx, t.name, r, conds.Where())
}

func (t *LazyTable) HasAny(ctx context.Context, conds table.Conditions) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	where := conds.Where()
	item, err := t.cached(ctx, "any", where, func() (*cache.Item, error) {
		records, err := t.storage.Select(ctx, t.name, table.Query{
			Where:   where,
			Options: table.Options{Limit: 1},
		})
		if err != nil {
			return nil, err
		}
		return &cache.Item{Count: int64(len(records))}, nil
	})
	if err != nil {
		return false, err
	}
	return item.Count > 0, nil
}

func (t *LazyTable) Count(ctx context.Context, conds table.Conditions) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	where := conds.Where()
	item, err := t.cached(ctx, "count", where, func() (*cache.Item, error) {
		n, err := t.storage.Count(ctx, t.name, where)
		if err != nil {
			return nil, err
		}
		return &cache.Item{Count: n}, nil
	})
	if err != nil {
		return 0, err
	}
	return item.Count, nil
}

func (t *LazyTable) Insert(ctx context.Context, record table.Record) error {
	if err := t.check(); err != nil {
		return err
	}
	defer t.invalidate()
	return t.storage.Insert(ctx, t.name, record)
}

func (t *LazyTable) Update(ctx context.Context, updates table.Record, conds table.Conditions) error {
	return t.UpdateWhere(ctx, updates, conds.Where())
}

func (t *LazyTable) UpdateWhere(ctx context.Context, updates table.Record, where table.Where) error {
	if err := t.check(); err != nil {
		return err
	}
	defer t.invalidate()
	return t.storage.Update(ctx, t.name, updates, where)
}

func (t *LazyTable) Delete(ctx context.Context, conds table.Conditions) error {
	if err := t.check(); err != nil {
		return err
	}
	defer t.invalidate()
	return t.storage.Delete(ctx, t.name, conds.Where())
}

func (t *LazyTable) DeleteByPrimaryKey(ctx context.Context, key table.Record) error {
	conds, err := t.primaryKey.Conditions(key)
	if err != nil {
		return err
	}
	return t.Delete(ctx, conds)
}

var _ table.Table = (*LazyTable)(nil)
