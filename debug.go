package tablecache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache/table"
)

// DebugStats contains debug decorator counters.
type DebugStats struct {
	Calls  uint64
	Errors uint64
}

// DebugTable wraps another table, forwarding every call unchanged. Each call
// is logged at debug level, and suspicious arguments are reported as
// warnings without being rejected.
type DebugTable struct {
	inner      table.Table
	name       string
	primaryKey table.PrimaryKey
	logger     *zap.Logger
	stats      DebugStats
}

// NewDebugTable wraps inner. A nil logger disables logging; counters are
// still kept.
func NewDebugTable(inner table.Table, name string, primaryKey table.PrimaryKey, logger *zap.Logger) *DebugTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(primaryKey) == 0 {
		primaryKey = table.DefaultPrimaryKey
	}
	return &DebugTable{
		inner:      inner,
		name:       name,
		primaryKey: primaryKey,
		logger:     logger.With(zap.String("table", name)),
	}
}

// Unwrap returns the decorated table.
func (d *DebugTable) Unwrap() table.Table {
	return d.inner
}

// Stats returns the decorator's counters.
func (d *DebugTable) Stats() *DebugStats {
	return &DebugStats{
		Calls:  atomic.LoadUint64(&d.stats.Calls),
		Errors: atomic.LoadUint64(&d.stats.Errors),
	}
}

func (d *DebugTable) done(op string, start time.Time, err error, fields ...zap.Field) {
	atomic.AddUint64(&d.stats.Calls, 1)
	fields = append(fields,
		zap.String("op", op),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		atomic.AddUint64(&d.stats.Errors, 1)
		fields = append(fields, zap.Error(err))
	}
	d.logger.Debug("table call", fields...)
}

func (d *DebugTable) checkKey(op string, r table.Record) {
	for _, col := range d.primaryKey {
		if _, ok := r[col]; !ok {
			d.logger.Warn("record is missing a primary key column",
				zap.String("op", op),
				zap.String("column", col),
			)
		}
	}
}

func (d *DebugTable) checkWhere(op string, w table.Where) {
	if err := w.Validate(); err != nil {
		d.logger.Warn("invalid where clause", zap.String("op", op), zap.Error(err))
	}
}

func (d *DebugTable) checkUpdates(op string, updates table.Record) {
	if len(updates) == 0 {
		d.logger.Warn("update without columns", zap.String("op", op))
	}
	for col := range updates {
		if d.primaryKey.Contains(col) {
			d.logger.Warn("update changes a primary key column",
				zap.String("op", op),
				zap.String("column", col),
			)
		}
	}
}

func (d *DebugTable) Initialize(ctx context.Context) error {
	start := time.Now()
	err := d.inner.Initialize(ctx)
	d.done("Initialize", start, err)
	return err
}

func (d *DebugTable) Destroy(ctx context.Context) error {
	start := time.Now()
	err := d.inner.Destroy(ctx)
	d.done("Destroy", start, err)
	return err
}

func (d *DebugTable) GetMany(ctx context.Context, conds table.Conditions, opts *table.Options) ([]table.Record, error) {
	start := time.Now()
	records, err := d.inner.GetMany(ctx, conds, opts)
	d.done("GetMany", start, err, zap.Int("records", len(records)))
	return records, err
}

func (d *DebugTable) GetManyWhere(ctx context.Context, q table.Query) ([]table.Record, error) {
	d.checkWhere("GetManyWhere", q.Where)
	start := time.Now()
	records, err := d.inner.GetManyWhere(ctx, q)
	d.done("GetManyWhere", start, err, zap.Int("records", len(records)))
	return records, err
}

func (d *DebugTable) GetOne(ctx context.Context, conds table.Conditions, sort ...table.Order) (table.Record, error) {
	start := time.Now()
	r, err := d.inner.GetOne(ctx, conds, sort...)
	d.done("GetOne", start, err)
	return r, err
}

func (d *DebugTable) GetOneByPrimaryKey(ctx context.Context, key table.Record) (table.Record, error) {
	d.checkKey("GetOneByPrimaryKey", key)
	start := time.Now()
	r, err := d.inner.GetOneByPrimaryKey(ctx, key)
	d.done("GetOneByPrimaryKey", start, err)
	return r, err
}

func (d *DebugTable) Reduce(ctx context.Context, r table.Reducer, conds table.Conditions) (interface{}, error) {
	if r.SQL == "" && r.Fold == nil {
		d.logger.Warn("reducer has neither SQL nor Fold", zap.String("op", "Reduce"))
	}
	start := time.Now()
	v, err := d.inner.Reduce(ctx, r, conds)
	d.done("Reduce", start, err)
	return v, err
}

func (d *DebugTable) HasAny(ctx context.Context, conds table.Conditions) (bool, error) {
	start := time.Now()
	ok, err := d.inner.HasAny(ctx, conds)
	d.done("HasAny", start, err, zap.Bool("result", ok))
	return ok, err
}

func (d *DebugTable) Count(ctx context.Context, conds table.Conditions) (int64, error) {
	start := time.Now()
	n, err := d.inner.Count(ctx, conds)
	d.done("Count", start, err, zap.Int64("result", n))
	return n, err
}

func (d *DebugTable) Insert(ctx context.Context, record table.Record) error {
	d.checkKey("Insert", record)
	start := time.Now()
	err := d.inner.Insert(ctx, record)
	d.done("Insert", start, err)
	return err
}

func (d *DebugTable) Update(ctx context.Context, updates table.Record, conds table.Conditions) error {
	d.checkUpdates("Update", updates)
	start := time.Now()
	err := d.inner.Update(ctx, updates, conds)
	d.done("Update", start, err)
	return err
}

func (d *DebugTable) UpdateWhere(ctx context.Context, updates table.Record, where table.Where) error {
	d.checkUpdates("UpdateWhere", updates)
	d.checkWhere("UpdateWhere", where)
	start := time.Now()
	err := d.inner.UpdateWhere(ctx, updates, where)
	d.done("UpdateWhere", start, err)
	return err
}

func (d *DebugTable) Delete(ctx context.Context, conds table.Conditions) error {
	if len(conds) == 0 {
		d.logger.Warn("delete without conditions removes every record", zap.String("op", "Delete"))
	}
	start := time.Now()
	err := d.inner.Delete(ctx, conds)
	d.done("Delete", start, err)
	return err
}

func (d *DebugTable) DeleteByPrimaryKey(ctx context.Context, key table.Record) error {
	d.checkKey("DeleteByPrimaryKey", key)
	start := time.Now()
	err := d.inner.DeleteByPrimaryKey(ctx, key)
	d.done("DeleteByPrimaryKey", start, err)
	return err
}

var _ table.Table = (*DebugTable)(nil)
