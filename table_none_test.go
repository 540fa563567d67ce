package tablecache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prashanthpai/tablecache/mocks"
	"github.com/prashanthpai/tablecache/table"
)

func TestNoCacheTable(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	mockStorage := new(mocks.Storage)
	nc := NewNoCacheTable(mockStorage, "users", nil)
	assert.Nil(nc.Initialize(ctx))

	byID := table.Where{{Column: "id", Op: table.OpEq, Value: 1}}
	ann := table.Record{"id": int64(1), "name": "ann"}

	mockStorage.On("Select", ctx, "users", table.Query{
		Where:   byID,
		Options: table.Options{Limit: 1},
	}).Return([]table.Record{ann}, nil).Times(2)
	got, err := nc.GetOneByPrimaryKey(ctx, table.Record{"id": 1})
	assert.Nil(err)
	assert.Equal(ann, got)
	ok, err := nc.HasAny(ctx, table.Conditions{"id": 1})
	assert.Nil(err)
	assert.True(ok)

	missing := table.Where{{Column: "id", Op: table.OpEq, Value: 999}}
	mockStorage.On("Select", ctx, "users", table.Query{
		Where:   missing,
		Options: table.Options{Limit: 1},
	}).Return([]table.Record{}, nil).Once()
	_, err = nc.GetOne(ctx, table.Conditions{"id": 999})
	assert.True(errors.Is(err, table.ErrNotFound))

	opts := &table.Options{Sort: []table.Order{{Column: "name", Desc: true}}, Limit: 5}
	mockStorage.On("Select", ctx, "users", table.Query{Options: *opts}).
		Return([]table.Record{ann}, nil).Once()
	records, err := nc.GetMany(ctx, nil, opts)
	assert.Nil(err)
	assert.Len(records, 1)

	mockStorage.On("Count", ctx, "users", table.Where(nil)).Return(int64(7), nil).Once()
	n, err := nc.Count(ctx, nil)
	assert.Nil(err)
	assert.Equal(int64(7), n)

	mockStorage.On("Reduce", ctx, "users", mock.AnythingOfType("table.Reducer"), table.Where(nil)).
		Return(int64(3), nil).Once()
	v, err := nc.Reduce(ctx, table.Reducer{SQL: "COUNT(*)"}, nil)
	assert.Nil(err)
	assert.Equal(int64(3), v)

	mockStorage.On("Insert", ctx, "users", ann).Return(table.ErrConflict).Once()
	assert.True(errors.Is(nc.Insert(ctx, ann), table.ErrConflict))

	updates := table.Record{"name": "anne"}
	mockStorage.On("Update", ctx, "users", updates, byID).Return(nil).Once()
	assert.Nil(nc.Update(ctx, updates, table.Conditions{"id": 1}))

	mockStorage.On("Delete", ctx, "users", byID).Return(nil).Once()
	assert.Nil(nc.DeleteByPrimaryKey(ctx, table.Record{"id": 1}))

	// a key missing its column never reaches storage
	assert.NotNil(nc.DeleteByPrimaryKey(ctx, table.Record{"name": "ann"}))

	mockStorage.AssertExpectations(t)

	assert.Nil(nc.Destroy(ctx))
	_, err = nc.Count(ctx, nil)
	assert.True(errors.Is(err, table.ErrDestroyed))
	assert.True(errors.Is(nc.Initialize(ctx), table.ErrDestroyed))
}
