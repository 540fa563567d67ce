package sqlstore

import (
	"context"
	"database/sql/driver"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ngrok/sqlmw"
	"go.uber.org/zap"
)

// InterceptorConfig is the configuration passed to NewInterceptor.
type InterceptorConfig struct {
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// SlowThreshold, when set, logs statements running longer than it at
	// warn level.
	SlowThreshold time.Duration
}

// Interceptor is a ngrok/sqlmw interceptor that keeps per table statement
// statistics. Only statements carrying a "-- @table" attribute, i.e. the
// ones compiled by Store, are recorded.
type Interceptor struct {
	logger   *zap.Logger
	slow     time.Duration
	mu       sync.Mutex
	stats    map[string]*Stats
	disabled int32
	sqlmw.NullInterceptor
}

// NewInterceptor returns a new Interceptor. A nil config is valid.
func NewInterceptor(config *InterceptorConfig) *Interceptor {
	if config == nil {
		config = &InterceptorConfig{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		logger: logger,
		slow:   config.SlowThreshold,
		stats:  make(map[string]*Stats),
	}
}

// Driver wraps d so that every connection it opens is intercepted.
func (i *Interceptor) Driver(d driver.Driver) driver.Driver {
	return sqlmw.Driver(d, i)
}

// Enable enables the interceptor. Interceptor instance is enabled by default
// on creation.
func (i *Interceptor) Enable() {
	atomic.StoreInt32(&i.disabled, 0)
}

// Disable stops recording. Statements still run normally.
func (i *Interceptor) Disable() {
	atomic.StoreInt32(&i.disabled, 1)
}

func (i *Interceptor) attrs(query string) *attributes {
	if atomic.LoadInt32(&i.disabled) == 1 {
		return nil
	}
	return getAttrs(query)
}

func (i *Interceptor) tableStats(name string) *Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, ok := i.stats[name]
	if !ok {
		s = new(Stats)
		i.stats[name] = s
	}
	return s
}

func (i *Interceptor) observe(attrs *attributes, start time.Time, err error) *Stats {
	s := i.tableStats(attrs.table)
	if err != nil {
		atomic.AddUint64(&s.Errors, 1)
	}
	if took := time.Since(start); i.slow > 0 && took > i.slow {
		i.logger.Warn("slow statement",
			zap.String("table", attrs.table),
			zap.String("op", attrs.op),
			zap.Duration("took", took),
		)
	}
	return s
}

// ConnQueryContext intecepts database/sql's DB.QueryContext Conn.QueryContext calls.
func (i *Interceptor) ConnQueryContext(ctx context.Context, conn driver.QueryerContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	attrs := i.attrs(query)
	if attrs == nil {
		rows, err := conn.QueryContext(ctx, query, args)
		return ctx, rows, err
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args)
	s := i.observe(attrs, start, err)
	atomic.AddUint64(&s.Queries, 1)
	if err != nil {
		return ctx, rows, err
	}
	return ctx, newRowsRecorder(s, rows), nil
}

// StmtQueryContext intecepts database/sql's stmt.QueryContext calls from a prepared statement.
func (i *Interceptor) StmtQueryContext(ctx context.Context, conn driver.StmtQueryContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	attrs := i.attrs(query)
	if attrs == nil {
		rows, err := conn.QueryContext(ctx, args)
		return ctx, rows, err
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx, args)
	s := i.observe(attrs, start, err)
	atomic.AddUint64(&s.Queries, 1)
	if err != nil {
		return ctx, rows, err
	}
	return ctx, newRowsRecorder(s, rows), nil
}

// ConnExecContext intecepts database/sql's DB.ExecContext Conn.ExecContext calls.
func (i *Interceptor) ConnExecContext(ctx context.Context, conn driver.ExecerContext, query string, args []driver.NamedValue) (driver.Result, error) {
	attrs := i.attrs(query)
	if attrs == nil {
		return conn.ExecContext(ctx, query, args)
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args)
	i.recordExec(i.observe(attrs, start, err), res, err)
	return res, err
}

// StmtExecContext intecepts database/sql's stmt.ExecContext calls from a prepared statement.
func (i *Interceptor) StmtExecContext(ctx context.Context, conn driver.StmtExecContext, query string, args []driver.NamedValue) (driver.Result, error) {
	attrs := i.attrs(query)
	if attrs == nil {
		return conn.ExecContext(ctx, args)
	}

	start := time.Now()
	res, err := conn.ExecContext(ctx, args)
	i.recordExec(i.observe(attrs, start, err), res, err)
	return res, err
}

func (i *Interceptor) recordExec(s *Stats, res driver.Result, err error) {
	atomic.AddUint64(&s.Execs, 1)
	if err != nil || res == nil {
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		atomic.AddUint64(&s.Rows, uint64(n))
	}
}

// Stats contains statement statistics of one table.
type Stats struct {
	Queries uint64
	Execs   uint64
	// Rows counts rows read by queries plus rows affected by execs.
	Rows   uint64
	Errors uint64
}

// Stats returns a snapshot of the statistics of table.
func (i *Interceptor) Stats(table string) *Stats {
	i.mu.Lock()
	s, ok := i.stats[table]
	i.mu.Unlock()
	if !ok {
		return &Stats{}
	}
	return &Stats{
		Queries: atomic.LoadUint64(&s.Queries),
		Execs:   atomic.LoadUint64(&s.Execs),
		Rows:    atomic.LoadUint64(&s.Rows),
		Errors:  atomic.LoadUint64(&s.Errors),
	}
}

// Tables returns the names of every table seen so far, sorted.
func (i *Interceptor) Tables() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	names := make([]string, 0, len(i.stats))
	for name := range i.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
