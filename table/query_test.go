package table

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestConditionsWhere(t *testing.T) {
	assert := require.New(t)

	assert.Nil(Conditions(nil).Where())
	assert.Nil(Conditions{}.Where())

	w := Conditions{"name": "a", "id": 1}.Where()
	assert.Equal(Where{
		{Column: "id", Op: OpEq, Value: 1},
		{Column: "name", Op: OpEq, Value: "a"},
	}, w)
}

func TestWhereMatch(t *testing.T) {
	assert := require.New(t)

	rec := Record{"id": int64(5), "name": "bob", "score": 2.5, "deleted": nil}

	tests := map[string]struct {
		where Where
		match bool
	}{
		"empty matches":         {nil, true},
		"int eq int64":          {Where{{"id", OpEq, 5}}, true},
		"ne":                    {Where{{"id", OpNe, 5}}, false},
		"lt float vs int":       {Where{{"score", OpLt, 3}}, true},
		"ge":                    {Where{{"id", OpGe, int64(5)}}, true},
		"gt":                    {Where{{"id", OpGt, 5}}, false},
		"le text":               {Where{{"name", OpLe, "bob"}}, true},
		"in":                    {Where{{"id", OpIn, []interface{}{1, 5}}}, true},
		"in miss":               {Where{{"id", OpIn, []interface{}{1, 2}}}, false},
		"is null":               {Where{{"deleted", OpEq, nil}}, true},
		"missing column null":   {Where{{"nope", OpEq, nil}}, true},
		"is not null":           {Where{{"name", OpNe, nil}}, true},
		"null column never cmp": {Where{{"deleted", OpGt, 1}}, false},
		"text vs number":        {Where{{"name", OpEq, 5}}, false},
		"conjunction":           {Where{{"id", OpEq, 5}, {"name", OpEq, "alice"}}, false},
	}
	for name, tc := range tests {
		assert.Equal(tc.match, tc.where.Match(rec), name)
	}
}

func TestWhereValidate(t *testing.T) {
	assert := require.New(t)

	assert.Nil(Where{{"id", OpIn, []interface{}{1}}}.Validate())
	assert.NotNil(Where{{"", OpEq, 1}}.Validate())
	assert.NotNil(Where{{"id", Op("LIKE"), "x"}}.Validate())
	assert.NotNil(Where{{"id", OpIn, []int{1}}}.Validate())
}

func TestCompareOrdering(t *testing.T) {
	assert := require.New(t)

	assert.Equal(-1, Compare(nil, 0))
	assert.Equal(-1, Compare(100, "1"))
	assert.Equal(-1, Compare("z", []byte("a")))
	assert.Equal(0, Compare(int32(3), int64(3)))
	assert.Equal(0, Compare(3, 3.0))
	assert.Equal(1, Compare("b", "a"))
}

func TestOptionsApply(t *testing.T) {
	records := []Record{
		{"id": int64(1), "v": "c"},
		{"id": int64(2), "v": "a"},
		{"id": int64(3), "v": "b"},
		{"id": int64(4), "v": nil},
	}

	tests := map[string]struct {
		opts *Options
		want []int64
	}{
		"nil keeps order":   {nil, []int64{1, 2, 3, 4}},
		"sort asc":          {&Options{Sort: []Order{{Column: "v"}}}, []int64{4, 2, 3, 1}},
		"sort desc":         {&Options{Sort: []Order{{Column: "v", Desc: true}}}, []int64{1, 3, 2, 4}},
		"offset and limit":  {&Options{Offset: 1, Limit: 2}, []int64{2, 3}},
		"offset past end":   {&Options{Offset: 10}, []int64{}},
		"limit beyond size": {&Options{Limit: 10}, []int64{1, 2, 3, 4}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			out := tc.opts.Apply(records)
			got := make([]int64, 0, len(out))
			for _, r := range out {
				got = append(got, r["id"].(int64))
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
	require.Equal(t, int64(1), records[0]["id"], "input must not be reordered")
}

func TestPrimaryKey(t *testing.T) {
	assert := require.New(t)

	pk := PrimaryKey{"a", "b"}
	k1, err := pk.Of(Record{"a": 1, "b": "x", "c": true})
	assert.Nil(err)
	k2, err := pk.Of(Record{"a": int64(1), "b": "x"})
	assert.Nil(err)
	assert.Equal(k1, k2)

	k3, err := pk.Of(Record{"a": "1", "b": "x"})
	assert.Nil(err)
	assert.NotEqual(k1, k3)

	// values Compare treats as equal share a key
	k4, err := pk.Of(Record{"a": 1.0, "b": "x"})
	assert.Nil(err)
	assert.Equal(k1, k4)
	k5, err := pk.Of(Record{"a": true, "b": "x"})
	assert.Nil(err)
	assert.Equal(k1, k5)
	k6, err := pk.Of(Record{"a": 1.5, "b": "x"})
	assert.Nil(err)
	assert.NotEqual(k1, k6)

	_, err = pk.Of(Record{"a": 1})
	assert.NotNil(err)

	conds, err := pk.Conditions(Record{"a": 1, "b": "x", "c": 3})
	assert.Nil(err)
	assert.Equal(Conditions{"a": 1, "b": "x"}, conds)

	assert.True(pk.Contains("b"))
	assert.False(pk.Contains("c"))
}

func TestRecordNormalizeAndMerge(t *testing.T) {
	assert := require.New(t)

	r := Record{"id": 1, "f": float32(1.5), "s": "x"}
	n := r.Normalize()
	assert.Equal(Record{"id": int64(1), "f": float64(1.5), "s": "x"}, n)
	assert.Equal(1, r["id"], "Normalize must copy")

	m := n.Merge(Record{"s": "y", "n": 2})
	assert.Equal(Record{"id": int64(1), "f": float64(1.5), "s": "y", "n": int64(2)}, m)
	assert.Equal("x", n["s"])

	assert.Equal([]string{"f", "id", "n", "s"}, m.Columns())
}

func TestNewStorageError(t *testing.T) {
	assert := require.New(t)

	assert.Nil(NewStorageError("select", "t", nil))
	assert.Equal(ErrConflict, NewStorageError("insert", "t", ErrConflict))

	cause := errors.New("disk full")
	err := NewStorageError("insert", "t", cause)
	var se *StorageError
	assert.True(errors.As(err, &se))
	assert.Equal("insert", se.Op)
	assert.True(errors.Is(err, cause))
	assert.Equal(err, NewStorageError("again", "t", err))
}
