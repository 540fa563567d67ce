// Package table defines the record model and the contracts shared by every
// table implementation and by the storage engine underneath them.
package table

import (
	"context"
)

// Table is the uniform access interface for the records of one table. Every
// caching strategy, the debug decorator and the strategy selector implement
// it. Initialize must complete before any other method is called; after
// Destroy the table is unusable and methods return ErrDestroyed.
type Table interface {
	Initialize(ctx context.Context) error
	Destroy(ctx context.Context) error

	// GetMany returns every record matching conds. opts may be nil.
	GetMany(ctx context.Context, conds Conditions, opts *Options) ([]Record, error)
	// GetManyWhere is GetMany with comparison clauses, sorting and paging.
	GetManyWhere(ctx context.Context, q Query) ([]Record, error)
	// GetOne returns the first matching record, or ErrNotFound. When more
	// than one record matches the choice depends on sort and storage order.
	GetOne(ctx context.Context, conds Conditions, sort ...Order) (Record, error)
	// GetOneByPrimaryKey returns the record identified by the key columns in
	// key, or ErrNotFound.
	GetOneByPrimaryKey(ctx context.Context, key Record) (Record, error)
	Reduce(ctx context.Context, r Reducer, conds Conditions) (interface{}, error)
	HasAny(ctx context.Context, conds Conditions) (bool, error)
	Count(ctx context.Context, conds Conditions) (int64, error)

	// Insert adds a record. It fails with ErrConflict if the primary key is
	// already taken.
	Insert(ctx context.Context, record Record) error
	// Update applies updates to every matching record. Nothing matching is
	// not an error.
	Update(ctx context.Context, updates Record, conds Conditions) error
	UpdateWhere(ctx context.Context, updates Record, where Where) error
	Delete(ctx context.Context, conds Conditions) error
	DeleteByPrimaryKey(ctx context.Context, key Record) error
}

// Storage is the persistent record store shared by all strategies of all
// tables. Implementations handle their own concurrency control. Errors other
// than ErrConflict are returned as *StorageError.
type Storage interface {
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	// Reduce evaluates r.SQL when set, otherwise folds matching rows one at
	// a time without materializing them.
	Reduce(ctx context.Context, table string, r Reducer, where Where) (interface{}, error)
	Count(ctx context.Context, table string, where Where) (int64, error)
	Insert(ctx context.Context, table string, record Record) error
	Update(ctx context.Context, table string, updates Record, where Where) error
	Delete(ctx context.Context, table string, where Where) error
}
