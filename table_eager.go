package tablecache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prashanthpai/tablecache/table"
)

var errNotInitialized = errors.New("table not initialized")

// EagerTable keeps a complete in-memory mirror of the table. Initialize loads
// every record; reads are answered from memory only; writes go to storage
// first and are mirrored once storage accepted them. Records keep storage
// order, with inserts appended.
type EagerTable struct {
	storage    table.Storage
	name       string
	primaryKey table.PrimaryKey

	mu          sync.RWMutex
	keys        []string
	records     map[string]table.Record
	initialized bool
	destroyed   bool
}

// NewEagerTable returns an eager table. A nil primaryKey means
// table.DefaultPrimaryKey.
func NewEagerTable(storage table.Storage, name string, primaryKey table.PrimaryKey) *EagerTable {
	if len(primaryKey) == 0 {
		primaryKey = table.DefaultPrimaryKey
	}
	return &EagerTable{
		storage:    storage,
		name:       name,
		primaryKey: primaryKey,
	}
}

func (t *EagerTable) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return table.ErrDestroyed
	}
	return t.load(ctx)
}

// load replaces the mirror with the table's current contents. Callers hold
// t.mu.
func (t *EagerTable) load(ctx context.Context) error {
	all, err := t.storage.Select(ctx, t.name, table.Query{})
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	records := make(map[string]table.Record, len(all))
	for _, r := range all {
		k, err := t.primaryKey.Of(r)
		if err != nil {
			return fmt.Errorf("load %q: %w", t.name, err)
		}
		if _, dup := records[k]; !dup {
			keys = append(keys, k)
		}
		records[k] = r.Normalize()
	}
	t.keys = keys
	t.records = records
	t.initialized = true
	return nil
}

// refresh reloads the whole mirror after a write whose rows could not be read
// back. If that fails too the mirror is dropped: reads fail with
// errNotInitialized until the next Initialize instead of serving rows storage
// no longer holds.
func (t *EagerTable) refresh(ctx context.Context, cause error) error {
	if err := t.load(ctx); err != nil {
		t.initialized = false
		t.keys = nil
		t.records = nil
		return fmt.Errorf("refresh %q mirror after %v: %w", t.name, cause, err)
	}
	return nil
}

// readBack selects the stored row matching conds. found is false when
// storage holds no such row.
func (t *EagerTable) readBack(ctx context.Context, conds table.Conditions) (row table.Record, found bool, err error) {
	rows, err := t.storage.Select(ctx, t.name, table.Query{
		Where:   conds.Where(),
		Options: table.Options{Limit: 1},
	})
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0].Normalize(), true, nil
}

func (t *EagerTable) Destroy(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
	t.keys = nil
	t.records = nil
	return nil
}

// Len returns the number of mirrored records.
func (t *EagerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

func (t *EagerTable) usable() error {
	if t.destroyed {
		return table.ErrDestroyed
	}
	if !t.initialized {
		return errNotInitialized
	}
	return nil
}

// matching returns copies of the matching records in mirror order. Callers
// hold t.mu.
func (t *EagerTable) matching(where table.Where, limit int) []table.Record {
	var out []table.Record
	for _, k := range t.keys {
		r := t.records[k]
		if !where.Match(r) {
			continue
		}
		out = append(out, r.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []table.Record{}
	}
	return out
}

func (t *EagerTable) GetMany(ctx context.Context, conds table.Conditions, opts *table.Options) ([]table.Record, error) {
	q := table.Query{Where: conds.Where()}
	if opts != nil {
		q.Options = *opts
	}
	return t.GetManyWhere(ctx, q)
}

func (t *EagerTable) GetManyWhere(ctx context.Context, q table.Query) ([]table.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return nil, err
	}
	return q.Options.Apply(t.matching(q.Where, 0)), nil
}

func (t *EagerTable) GetOne(ctx context.Context, conds table.Conditions, sort ...table.Order) (table.Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return nil, err
	}

	var found []table.Record
	if len(sort) == 0 {
		found = t.matching(conds.Where(), 1)
	} else {
		opts := table.Options{Sort: sort, Limit: 1}
		found = opts.Apply(t.matching(conds.Where(), 0))
	}
	if len(found) == 0 {
		return nil, table.ErrNotFound
	}
	return found[0], nil
}

func (t *EagerTable) GetOneByPrimaryKey(ctx context.Context, key table.Record) (table.Record, error) {
	k, err := t.primaryKey.Of(key)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return nil, err
	}
	r, ok := t.records[k]
	if !ok {
		return nil, table.ErrNotFound
	}
	return r.Clone(), nil
}

// Reduce folds in memory. A reducer without Fold can only be evaluated by
// storage, which is consistent with the mirror.
func (t *EagerTable) Reduce(ctx context.Context, r table.Reducer, conds table.Conditions) (interface{}, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return nil, err
	}
	if r.Fold == nil {
		return t.storage.Reduce(ctx, t.name, r, conds.Where())
	}

	acc := r.Initial
	where := conds.Where()
	for _, k := range t.keys {
		rec := t.records[k]
		if where.Match(rec) {
			acc = r.Fold(acc, rec.Clone())
		}
	}
	return acc, nil
}

func (t *EagerTable) HasAny(ctx context.Context, conds table.Conditions) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return false, err
	}
	return len(t.matching(conds.Where(), 1)) > 0, nil
}

func (t *EagerTable) Count(ctx context.Context, conds table.Conditions) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if err := t.usable(); err != nil {
		return 0, err
	}

	where := conds.Where()
	var n int64
	for _, k := range t.keys {
		if where.Match(t.records[k]) {
			n++
		}
	}
	return n, nil
}

// Insert rejects keys already in the mirror without touching storage. The
// stored row is read back and mirrored as storage holds it, with defaults
// filled in and values converted to the column types.
func (t *EagerTable) Insert(ctx context.Context, record table.Record) error {
	k, err := t.primaryKey.Of(record)
	if err != nil {
		return err
	}
	conds, _ := t.primaryKey.Conditions(record)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return err
	}
	if _, exists := t.records[k]; exists {
		return table.ErrConflict
	}
	if err := t.storage.Insert(ctx, t.name, record); err != nil {
		return err
	}

	stored, found, err := t.readBack(ctx, conds)
	if err == nil && !found {
		err = errors.New("inserted record not found")
	}
	if err != nil {
		return t.refresh(ctx, err)
	}
	sk, err := t.primaryKey.Of(stored)
	if err != nil {
		return t.refresh(ctx, err)
	}
	if _, exists := t.records[sk]; !exists {
		t.keys = append(t.keys, sk)
	}
	t.records[sk] = stored
	return nil
}

func (t *EagerTable) Update(ctx context.Context, updates table.Record, conds table.Conditions) error {
	return t.UpdateWhere(ctx, updates, conds.Where())
}

// UpdateWhere reads every updated record back from storage by its new
// primary key, so the mirror holds the values storage converted them to.
// Records whose key changes are re-keyed in place.
func (t *EagerTable) UpdateWhere(ctx context.Context, updates table.Record, where table.Where) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return err
	}
	if err := t.storage.Update(ctx, t.name, updates, where); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	type change struct {
		i     int
		row   table.Record
		found bool
	}
	var changes []change
	for i, k := range t.keys {
		r := t.records[k]
		if !where.Match(r) {
			continue
		}
		conds, err := t.primaryKey.Conditions(r.Merge(updates))
		if err != nil {
			return t.refresh(ctx, err)
		}
		row, found, err := t.readBack(ctx, conds)
		if err != nil {
			return t.refresh(ctx, err)
		}
		changes = append(changes, change{i: i, row: row, found: found})
	}
	if len(changes) == 0 {
		return nil
	}

	for _, c := range changes {
		delete(t.records, t.keys[c.i])
	}
	removed := make(map[int]bool)
	for _, c := range changes {
		if !c.found {
			removed[c.i] = true
			continue
		}
		nk, err := t.primaryKey.Of(c.row)
		if err != nil {
			return t.refresh(ctx, err)
		}
		t.keys[c.i] = nk
		t.records[nk] = c.row
	}
	if len(removed) > 0 {
		kept := t.keys[:0]
		for i, k := range t.keys {
			if !removed[i] {
				kept = append(kept, k)
			}
		}
		t.keys = kept
	}
	return nil
}

func (t *EagerTable) Delete(ctx context.Context, conds table.Conditions) error {
	return t.deleteWhere(ctx, conds.Where())
}

func (t *EagerTable) DeleteByPrimaryKey(ctx context.Context, key table.Record) error {
	conds, err := t.primaryKey.Conditions(key)
	if err != nil {
		return err
	}
	return t.deleteWhere(ctx, conds.Where())
}

func (t *EagerTable) deleteWhere(ctx context.Context, where table.Where) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usable(); err != nil {
		return err
	}
	if err := t.storage.Delete(ctx, t.name, where); err != nil {
		return err
	}

	kept := t.keys[:0]
	for _, k := range t.keys {
		if where.Match(t.records[k]) {
			delete(t.records, k)
			continue
		}
		kept = append(kept, k)
	}
	t.keys = kept
	return nil
}

var _ table.Table = (*EagerTable)(nil)
