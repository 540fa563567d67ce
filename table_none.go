package tablecache

import (
	"context"
	"sync/atomic"

	"github.com/prashanthpai/tablecache/table"
)

// NoCacheTable passes every operation straight to storage.
type NoCacheTable struct {
	storage    table.Storage
	name       string
	primaryKey table.PrimaryKey
	destroyed  int32
}

// NewNoCacheTable returns a pass-through table. A nil primaryKey means
// table.DefaultPrimaryKey.
func NewNoCacheTable(storage table.Storage, name string, primaryKey table.PrimaryKey) *NoCacheTable {
	if len(primaryKey) == 0 {
		primaryKey = table.DefaultPrimaryKey
	}
	return &NoCacheTable{
		storage:    storage,
		name:       name,
		primaryKey: primaryKey,
	}
}

func (t *NoCacheTable) check() error {
	if atomic.LoadInt32(&t.destroyed) == 1 {
		return table.ErrDestroyed
	}
	return nil
}

func (t *NoCacheTable) Initialize(ctx context.Context) error {
	return t.check()
}

func (t *NoCacheTable) Destroy(ctx context.Context) error {
	atomic.StoreInt32(&t.destroyed, 1)
	return nil
}

func (t *NoCacheTable) GetMany(ctx context.Context, conds table.Conditions, opts *table.Options) ([]table.Record, error) {
	q := table.Query{Where: conds.Where()}
	if opts != nil {
		q.Options = *opts
	}
	return t.GetManyWhere(ctx, q)
}

func (t *NoCacheTable) GetManyWhere(ctx context.Context, q table.Query) ([]table.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.storage.Select(ctx, t.name, q)
}

func (t *NoCacheTable) GetOne(ctx context.Context, conds table.Conditions, sort ...table.Order) (table.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	records, err := t.storage.Select(ctx, t.name, table.Query{
		Where:   conds.Where(),
		Options: table.Options{Sort: sort, Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, table.ErrNotFound
	}
	return records[0], nil
}

func (t *NoCacheTable) GetOneByPrimaryKey(ctx context.Context, key table.Record) (table.Record, error) {
	conds, err := t.primaryKey.Conditions(key)
	if err != nil {
		return nil, err
	}
	return t.GetOne(ctx, conds)
}

func (t *NoCacheTable) Reduce(ctx context.Context, r table.Reducer, conds table.Conditions) (interface{}, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.storage.Reduce(ctx, t.name, r, conds.Where())
}

func (t *NoCacheTable) HasAny(ctx context.Context, conds table.Conditions) (bool, error) {
	if err := t.check(); err != nil {
		return false, err
	}
	records, err := t.storage.Select(ctx, t.name, table.Query{
		Where:   conds.Where(),
		Options: table.Options{Limit: 1},
	})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (t *NoCacheTable) Count(ctx context.Context, conds table.Conditions) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.storage.Count(ctx, t.name, conds.Where())
}

func (t *NoCacheTable) Insert(ctx context.Context, record table.Record) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.storage.Insert(ctx, t.name, record)
}

func (t *NoCacheTable) Update(ctx context.Context, updates table.Record, conds table.Conditions) error {
	return t.UpdateWhere(ctx, updates, conds.Where())
}

func (t *NoCacheTable) UpdateWhere(ctx context.Context, updates table.Record, where table.Where) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.storage.Update(ctx, t.name, updates, where)
}

func (t *NoCacheTable) Delete(ctx context.Context, conds table.Conditions) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.storage.Delete(ctx, t.name, conds.Where())
}

func (t *NoCacheTable) DeleteByPrimaryKey(ctx context.Context, key table.Record) error {
	conds, err := t.primaryKey.Conditions(key)
	if err != nil {
		return err
	}
	return t.Delete(ctx, conds)
}

var _ table.Table = (*NoCacheTable)(nil)
