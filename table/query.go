package table

import (
	"fmt"
	"sort"
)

// Conditions is an equality conjunction over columns. A nil or empty value
// selects the whole table.
type Conditions map[string]interface{}

// Where converts the conditions to clauses, sorted by column so that the
// generated SQL and cache keys are deterministic.
func (c Conditions) Where() Where {
	if len(c) == 0 {
		return nil
	}
	cols := make([]string, 0, len(c))
	for col := range c {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	w := make(Where, 0, len(cols))
	for _, col := range cols {
		w = append(w, Clause{Column: col, Op: OpEq, Value: c[col]})
	}
	return w
}

// Op is a comparison operator usable in a Clause.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "<>"
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
	// OpIn expects a []interface{} value.
	OpIn Op = "IN"
)

// Valid reports whether op is a supported operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn:
		return true
	}
	return false
}

// Clause constrains a single column. A nil Value with OpEq or OpNe means
// IS NULL or IS NOT NULL respectively.
type Clause struct {
	Column string
	Op     Op
	Value  interface{}
}

// Where is a conjunction of clauses. An empty Where matches every record.
type Where []Clause

// Validate checks that every clause names a column and a supported operator.
func (w Where) Validate() error {
	for _, c := range w {
		if c.Column == "" {
			return fmt.Errorf("clause has empty column")
		}
		if !c.Op.Valid() {
			return fmt.Errorf("clause on %q has unsupported operator %q", c.Column, c.Op)
		}
		if c.Op == OpIn {
			if _, ok := c.Value.([]interface{}); !ok {
				return fmt.Errorf("clause on %q: IN expects []interface{}, got %T", c.Column, c.Value)
			}
		}
	}
	return nil
}

// Match evaluates the conjunction against r using SQL semantics: a
// comparison against a NULL column never matches.
func (w Where) Match(r Record) bool {
	for _, c := range w {
		if !c.match(r) {
			return false
		}
	}
	return true
}

func (c Clause) match(r Record) bool {
	v, ok := r[c.Column]
	if !ok {
		v = nil
	}
	if c.Value == nil {
		switch c.Op {
		case OpEq:
			return v == nil
		case OpNe:
			return v != nil
		default:
			return false
		}
	}
	if v == nil {
		return false
	}

	if c.Op == OpIn {
		values, _ := c.Value.([]interface{})
		for _, candidate := range values {
			if candidate != nil && Compare(v, candidate) == 0 {
				return true
			}
		}
		return false
	}

	cmp := Compare(v, c.Value)
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

// Compare orders two column values the way SQLite does: NULL before numbers,
// numbers before text, text before blobs. Numbers compare by value
// regardless of Go type.
func Compare(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		ia, aInt := asInt(a)
		ib, bInt := asInt(b)
		if aInt && bInt {
			return cmpOrdered(ia, ib)
		}
		return cmpFloat(asFloat(a), asFloat(b))
	case rankText:
		return cmpOrdered(textOf(a), textOf(b))
	default:
		return cmpOrdered(string(a.([]byte)), string(b.([]byte)))
	}
}

const (
	rankNull = iota
	rankNumber
	rankText
	rankBlob
)

func rank(v interface{}) int {
	switch normalizeValue(v).(type) {
	case nil:
		return rankNull
	case int64, float64, bool:
		return rankNumber
	case string:
		return rankText
	case []byte:
		return rankBlob
	default:
		// fall back to the textual form for anything else
		return rankText
	}
}

func asInt(v interface{}) (int64, bool) {
	switch n := normalizeValue(v).(type) {
	case int64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat(v interface{}) float64 {
	switch n := normalizeValue(v).(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

func textOf(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpOrdered(a, b interface{}) int {
	switch x := a.(type) {
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y := b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return 0
}

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// Options controls ordering and paging of multi-record reads. A zero Limit
// means no limit.
type Options struct {
	Sort   []Order
	Offset int
	Limit  int
}

// Apply sorts and pages records in memory. The input slice is not modified.
func (o *Options) Apply(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	if o == nil {
		return out
	}

	if len(o.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, ord := range o.Sort {
				cmp := Compare(out[i][ord.Column], out[j][ord.Column])
				if cmp == 0 {
					continue
				}
				if ord.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if o.Offset > 0 {
		if o.Offset >= len(out) {
			return []Record{}
		}
		out = out[o.Offset:]
	}
	if o.Limit > 0 && o.Limit < len(out) {
		out = out[:o.Limit]
	}
	return out
}

// Query is the rich descriptor accepted by GetManyWhere.
type Query struct {
	Where Where
	Options
}

// Reducer folds matching records into a single value. Storage engines may
// evaluate SQL, an aggregate select expression such as "COALESCE(SUM(n), 0)",
// instead of folding. In-memory strategies always fold from Initial.
type Reducer struct {
	SQL     string
	Initial interface{}
	Fold    func(acc interface{}, r Record) interface{}
}
