package tablecache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prashanthpai/tablecache/mocks"
	"github.com/prashanthpai/tablecache/table"
)

func TestDebugTableForwards(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)

	inner := new(mocks.Table)
	dt := NewDebugTable(inner, "users", nil, zap.New(core))
	assert.Equal(inner, dt.Unwrap())
	assert.Equal(inner, Unwrap(dt))

	record := table.Record{"id": int64(1), "name": "ann"}
	conds := table.Conditions{"name": "ann"}
	opts := &table.Options{Limit: 1}
	boom := errors.New("boom")

	inner.On("Initialize", ctx).Return(nil)
	inner.On("GetMany", ctx, conds, opts).Return([]table.Record{record}, nil)
	inner.On("GetManyWhere", ctx, table.Query{}).Return([]table.Record{}, nil)
	inner.On("GetOne", ctx, conds, table.Order{Column: "id"}).Return(record, nil)
	inner.On("GetOneByPrimaryKey", ctx, table.Record{"id": 1}).Return(nil, table.ErrNotFound)
	inner.On("Reduce", ctx, mock.Anything, conds).Return(int64(1), nil)
	inner.On("HasAny", ctx, conds).Return(true, nil)
	inner.On("Count", ctx, conds).Return(int64(1), nil)
	inner.On("Insert", ctx, record).Return(boom)
	inner.On("Update", ctx, table.Record{"name": "bea"}, conds).Return(nil)
	inner.On("UpdateWhere", ctx, table.Record{"name": "bea"}, conds.Where()).Return(nil)
	inner.On("Delete", ctx, conds).Return(nil)
	inner.On("DeleteByPrimaryKey", ctx, table.Record{"id": 1}).Return(nil)
	inner.On("Destroy", ctx).Return(nil)

	assert.Nil(dt.Initialize(ctx))
	many, err := dt.GetMany(ctx, conds, opts)
	assert.Nil(err)
	assert.Equal([]table.Record{record}, many)
	_, err = dt.GetManyWhere(ctx, table.Query{})
	assert.Nil(err)
	one, err := dt.GetOne(ctx, conds, table.Order{Column: "id"})
	assert.Nil(err)
	assert.Equal(record, one)
	_, err = dt.GetOneByPrimaryKey(ctx, table.Record{"id": 1})
	assert.Equal(table.ErrNotFound, err)
	v, err := dt.Reduce(ctx, table.Reducer{SQL: "COUNT(*)"}, conds)
	assert.Nil(err)
	assert.Equal(int64(1), v)
	ok, err := dt.HasAny(ctx, conds)
	assert.Nil(err)
	assert.True(ok)
	n, err := dt.Count(ctx, conds)
	assert.Nil(err)
	assert.Equal(int64(1), n)
	assert.Equal(boom, dt.Insert(ctx, record))
	assert.Nil(dt.Update(ctx, table.Record{"name": "bea"}, conds))
	assert.Nil(dt.UpdateWhere(ctx, table.Record{"name": "bea"}, conds.Where()))
	assert.Nil(dt.Delete(ctx, conds))
	assert.Nil(dt.DeleteByPrimaryKey(ctx, table.Record{"id": 1}))
	assert.Nil(dt.Destroy(ctx))

	inner.AssertExpectations(t)

	stats := dt.Stats()
	assert.Equal(uint64(14), stats.Calls)
	assert.Equal(uint64(2), stats.Errors)

	calls := logs.FilterMessage("table call")
	assert.Equal(14, calls.Len())
	for _, e := range calls.All() {
		assert.Equal(zapcore.DebugLevel, e.Level)
		assert.Equal("users", e.ContextMap()["table"])
	}
	assert.Equal(0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestDebugTableWarnings(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)

	inner := new(mocks.Table)
	inner.On("Insert", ctx, mock.Anything).Return(nil)
	inner.On("Update", ctx, mock.Anything, mock.Anything).Return(nil)
	inner.On("GetManyWhere", ctx, mock.Anything).Return([]table.Record{}, nil)
	inner.On("Delete", ctx, mock.Anything).Return(nil)
	inner.On("Reduce", ctx, mock.Anything, mock.Anything).Return(nil, nil)

	dt := NewDebugTable(inner, "users", table.PrimaryKey{"tenant", "id"}, zap.New(core))

	// warnings never reject the call
	assert.Nil(dt.Insert(ctx, table.Record{"id": 1}))
	assert.Nil(dt.Update(ctx, table.Record{"id": 2}, table.Conditions{"id": 1}))
	_, err := dt.GetManyWhere(ctx, table.Query{Where: table.Where{{Column: "a", Op: "LIKE"}}})
	assert.Nil(err)
	assert.Nil(dt.Delete(ctx, nil))
	_, err = dt.Reduce(ctx, table.Reducer{}, nil)
	assert.Nil(err)

	assert.Equal(1, logs.FilterMessage("record is missing a primary key column").Len())
	assert.Equal("tenant", logs.FilterMessage("record is missing a primary key column").All()[0].ContextMap()["column"])
	assert.Equal(1, logs.FilterMessage("update changes a primary key column").Len())
	assert.Equal(1, logs.FilterMessage("invalid where clause").Len())
	assert.Equal(1, logs.FilterMessage("delete without conditions removes every record").Len())
	assert.Equal(1, logs.FilterMessage("reducer has neither SQL nor Fold").Len())
	assert.Equal(uint64(5), dt.Stats().Calls)
	inner.AssertExpectations(t)
}
