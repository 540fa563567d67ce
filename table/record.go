package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Record is a single table row keyed by column name.
type Record map[string]interface{}

// Clone returns a shallow copy of the record. Nil stays nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	cpy := make(Record, len(r))
	for k, v := range r {
		cpy[k] = v
	}
	return cpy
}

// Normalize returns a copy of the record with integer values widened to int64
// and floats to float64, which is how database/sql drivers hand them back.
// In-memory strategies store normalized records so that reads from memory
// and reads from storage are indistinguishable.
func (r Record) Normalize() Record {
	if r == nil {
		return nil
	}
	cpy := make(Record, len(r))
	for k, v := range r {
		cpy[k] = normalizeValue(v)
	}
	return cpy
}

// Merge returns a copy of r with the given updates applied.
func (r Record) Merge(updates Record) Record {
	cpy := r.Clone()
	if cpy == nil {
		cpy = make(Record, len(updates))
	}
	for k, v := range updates {
		cpy[k] = normalizeValue(v)
	}
	return cpy
}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func normalizeValue(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// DefaultPrimaryKey is used when a table does not name its key columns.
var DefaultPrimaryKey = PrimaryKey{"id"}

// PrimaryKey lists the columns whose combined value identifies a record.
type PrimaryKey []string

// Of serializes the key columns of r into a string usable as a map key.
func (pk PrimaryKey) Of(r Record) (string, error) {
	var b strings.Builder
	for i, col := range pk {
		v, ok := r[col]
		if !ok {
			return "", fmt.Errorf("record is missing primary key column %q", col)
		}
		if i > 0 {
			b.WriteByte(0)
		}
		kv := keyValue(v)
		fmt.Fprintf(&b, "%T:%v", kv, kv)
	}
	return b.String(), nil
}

// keyValue folds values Compare treats as equal onto one representation:
// booleans and integral floats become int64.
func keyValue(v interface{}) interface{} {
	switch n := normalizeValue(v).(type) {
	case bool:
		if n {
			return int64(1)
		}
		return int64(0)
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n)
		}
		return n
	default:
		return n
	}
}

// Conditions returns equality conditions selecting the record identified by
// the key columns of r.
func (pk PrimaryKey) Conditions(r Record) (Conditions, error) {
	conds := make(Conditions, len(pk))
	for _, col := range pk {
		v, ok := r[col]
		if !ok {
			return nil, fmt.Errorf("record is missing primary key column %q", col)
		}
		conds[col] = v
	}
	return conds, nil
}

// Contains reports whether col is one of the key columns.
func (pk PrimaryKey) Contains(col string) bool {
	for _, c := range pk {
		if c == col {
			return true
		}
	}
	return false
}
