// Package sqlstore implements table.Storage on top of database/sql for
// SQLite (modernc.org/sqlite) and PostgreSQL (jackc/pgx). Every compiled
// statement carries "-- @table" and "-- @op" attribute comments which the
// package's Interceptor uses to keep per table statistics.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/prashanthpai/tablecache/table"
)

// Config is the configuration passed to New.
type Config struct {
	// DB is required.
	DB *sql.DB
	// Dialect defaults to DialectSQLite.
	Dialect Dialect
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Store is a table.Storage backed by a *sql.DB. It is safe for concurrent
// use; concurrency control is left to the database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// New returns a Store initialised with the provided config.
func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config can't be nil")
	}
	if config.DB == nil {
		return nil, fmt.Errorf("db must be set in Config")
	}
	d := config.Dialect
	if d == "" {
		d = DialectSQLite
	}
	if _, err := ParseDialect(string(d)); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      config.DB,
		dialect: d,
		logger:  logger,
	}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Select(ctx context.Context, tableName string, q table.Query) ([]table.Record, error) {
	query, args, err := buildSelect(s.dialect, tableName, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail("select", tableName, err)
	}
	defer rows.Close()

	records := []table.Record{}
	err = scanRecords(rows, func(r table.Record) {
		records = append(records, r)
	})
	if err != nil {
		return nil, s.fail("select", tableName, err)
	}
	return records, nil
}

func (s *Store) Reduce(ctx context.Context, tableName string, r table.Reducer, where table.Where) (interface{}, error) {
	if r.SQL != "" {
		query, args, err := buildReduce(s.dialect, tableName, r.SQL, where)
		if err != nil {
			return nil, err
		}
		var v interface{}
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
			return nil, s.fail("reduce", tableName, err)
		}
		return table.Record{"v": v}.Normalize()["v"], nil
	}
	if r.Fold == nil {
		return nil, fmt.Errorf("reduce %q: reducer has neither SQL nor Fold", tableName)
	}

	query, args, err := buildSelect(s.dialect, tableName, table.Query{Where: where})
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail("reduce", tableName, err)
	}
	defer rows.Close()

	acc := r.Initial
	err = scanRecords(rows, func(rec table.Record) {
		acc = r.Fold(acc, rec)
	})
	if err != nil {
		return nil, s.fail("reduce", tableName, err)
	}
	return acc, nil
}

func (s *Store) Count(ctx context.Context, tableName string, where table.Where) (int64, error) {
	query, args, err := buildCount(s.dialect, tableName, where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.fail("count", tableName, err)
	}
	return n, nil
}

func (s *Store) Insert(ctx context.Context, tableName string, record table.Record) error {
	query, args, err := buildInsert(s.dialect, tableName, record)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isConflict(err) {
			return fmt.Errorf("insert into %q: %w", tableName, table.ErrConflict)
		}
		return s.fail("insert", tableName, err)
	}
	return nil
}

// Update with no columns to set is a no-op.
func (s *Store) Update(ctx context.Context, tableName string, updates table.Record, where table.Where) error {
	if len(updates) == 0 {
		return nil
	}
	query, args, err := buildUpdate(s.dialect, tableName, updates, where)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isConflict(err) {
			return fmt.Errorf("update %q: %w", tableName, table.ErrConflict)
		}
		return s.fail("update", tableName, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tableName string, where table.Where) error {
	query, args, err := buildDelete(s.dialect, tableName, where)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.fail("delete", tableName, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows, fn func(table.Record)) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		r := make(table.Record, len(cols))
		for i, col := range cols {
			r[col] = values[i]
		}
		fn(r.Normalize())
	}
	return rows.Err()
}

// isConflict reports whether err is a unique or primary key violation.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// BaseDriver returns the database/sql driver of the dialect.
func BaseDriver(d Dialect) (driver.Driver, error) {
	switch d {
	case DialectSQLite:
		return &sqlite.Driver{}, nil
	case DialectPostgres:
		return stdlib.GetDefaultDriver(), nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", d)
}

type dsnConnector struct {
	dsn string
	d   driver.Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.d.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver {
	return c.d
}

// Open opens a database of the given dialect. When ic is not nil every
// connection goes through it. SQLite databases are limited to one open
// connection so that writers never see SQLITE_BUSY.
func Open(d Dialect, dsn string, ic *Interceptor) (*sql.DB, error) {
	drv, err := BaseDriver(d)
	if err != nil {
		return nil, err
	}
	if ic != nil {
		drv = ic.Driver(drv)
	}
	db := sql.OpenDB(dsnConnector{dsn: dsn, d: drv})
	if d == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func (s *Store) fail(op, tableName string, err error) error {
	s.logger.Debug("statement failed",
		zap.String("op", op),
		zap.String("table", tableName),
		zap.Error(err),
	)
	return table.NewStorageError(op, tableName, err)
}
