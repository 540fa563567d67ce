package sqlstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/prashanthpai/tablecache/table"
)

// Dialect selects placeholder syntax and the few statement differences
// between the supported databases.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(s)); d {
	case DialectSQLite, DialectPostgres:
		return d, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", s)
}

var identRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(s string) error {
	if !identRegexp.MatchString(s) {
		return fmt.Errorf("invalid identifier %q", s)
	}
	return nil
}

// builder compiles one statement. Identifiers are validated and quoted,
// values are always bound.
type builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []interface{}
	err     error
}

func newBuilder(d Dialect, tableName, op string) *builder {
	b := &builder{dialect: d}
	b.err = checkIdent(tableName)
	writeAttrs(&b.sb, tableName, op)
	return b
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

func (b *builder) ident(s string) {
	if err := checkIdent(s); err != nil && b.err == nil {
		b.err = err
	}
	b.sb.WriteByte('"')
	b.sb.WriteString(s)
	b.sb.WriteByte('"')
}

func (b *builder) bind(v interface{}) {
	b.args = append(b.args, v)
	if b.dialect == DialectPostgres {
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
		return
	}
	b.sb.WriteByte('?')
}

func (b *builder) where(w table.Where) {
	if len(w) == 0 {
		return
	}
	if err := w.Validate(); err != nil && b.err == nil {
		b.err = err
	}

	b.write(" WHERE ")
	for i, c := range w {
		if i > 0 {
			b.write(" AND ")
		}
		b.ident(c.Column)
		switch {
		case c.Value == nil && c.Op == table.OpEq:
			b.write(" IS NULL")
		case c.Value == nil && c.Op == table.OpNe:
			b.write(" IS NOT NULL")
		case c.Op == table.OpIn:
			values, _ := c.Value.([]interface{})
			if len(values) == 0 {
				// matches nothing, like an empty set
				b.write(" IN (NULL)")
				continue
			}
			b.write(" IN (")
			for j, v := range values {
				if j > 0 {
					b.write(", ")
				}
				b.bind(v)
			}
			b.write(")")
		default:
			b.write(" " + string(c.Op) + " ")
			b.bind(c.Value)
		}
	}
}

func (b *builder) options(o table.Options) {
	if len(o.Sort) > 0 {
		b.write(" ORDER BY ")
		for i, ord := range o.Sort {
			if i > 0 {
				b.write(", ")
			}
			b.ident(ord.Column)
			if ord.Desc {
				b.write(" DESC")
			} else {
				b.write(" ASC")
			}
		}
	}
	switch {
	case o.Limit > 0:
		b.write(" LIMIT " + strconv.Itoa(o.Limit))
	case o.Offset > 0 && b.dialect == DialectSQLite:
		b.write(" LIMIT -1")
	}
	if o.Offset > 0 {
		b.write(" OFFSET " + strconv.Itoa(o.Offset))
	}
}

func (b *builder) build() (string, []interface{}, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	return b.sb.String(), b.args, nil
}

func buildSelect(d Dialect, tableName string, q table.Query) (string, []interface{}, error) {
	b := newBuilder(d, tableName, "select")
	b.write("SELECT * FROM ")
	b.ident(tableName)
	b.where(q.Where)
	b.options(q.Options)
	return b.build()
}

func buildCount(d Dialect, tableName string, w table.Where) (string, []interface{}, error) {
	b := newBuilder(d, tableName, "count")
	b.write("SELECT COUNT(*) FROM ")
	b.ident(tableName)
	b.where(w)
	return b.build()
}

// buildReduce embeds expr verbatim. Reducer expressions are written by the
// program, never taken from user input.
func buildReduce(d Dialect, tableName, expr string, w table.Where) (string, []interface{}, error) {
	b := newBuilder(d, tableName, "reduce")
	b.write("SELECT " + expr + " FROM ")
	b.ident(tableName)
	b.where(w)
	return b.build()
}

func buildInsert(d Dialect, tableName string, r table.Record) (string, []interface{}, error) {
	if len(r) == 0 {
		return "", nil, fmt.Errorf("insert into %q: empty record", tableName)
	}
	b := newBuilder(d, tableName, "insert")
	b.write("INSERT INTO ")
	b.ident(tableName)
	b.write(" (")
	cols := r.Columns()
	for i, col := range cols {
		if i > 0 {
			b.write(", ")
		}
		b.ident(col)
	}
	b.write(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			b.write(", ")
		}
		b.bind(r[col])
	}
	b.write(")")
	return b.build()
}

func buildUpdate(d Dialect, tableName string, updates table.Record, w table.Where) (string, []interface{}, error) {
	b := newBuilder(d, tableName, "update")
	b.write("UPDATE ")
	b.ident(tableName)
	b.write(" SET ")
	for i, col := range updates.Columns() {
		if i > 0 {
			b.write(", ")
		}
		b.ident(col)
		b.write(" = ")
		b.bind(updates[col])
	}
	b.where(w)
	return b.build()
}

func buildDelete(d Dialect, tableName string, w table.Where) (string, []interface{}, error) {
	b := newBuilder(d, tableName, "delete")
	b.write("DELETE FROM ")
	b.ident(tableName)
	b.where(w)
	return b.build()
}
