package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prashanthpai/tablecache"
	"github.com/prashanthpai/tablecache/cache"
	"github.com/prashanthpai/tablecache/events"
	"github.com/prashanthpai/tablecache/settings"
	"github.com/prashanthpai/tablecache/sqlstore"
	"github.com/prashanthpai/tablecache/table"
)

type options struct {
	dialect       string
	dsn           string
	table         string
	primaryKey    []string
	strategy      string
	debug         bool
	settingsFile  string
	redisAddr     string
	cacheTTL      time.Duration
	slowThreshold time.Duration
	logLevel      string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "tablecache [command] [flags]",
		Short:        "Access a database table through a switchable caching layer.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dialect, "dialect", string(sqlstore.DialectSQLite), "database dialect, \"sqlite\" or \"postgres\"")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "tablecache.db", "data source name")
	cmd.PersistentFlags().StringVar(&opts.table, "table", "", "table name")
	cmd.PersistentFlags().StringSliceVar(&opts.primaryKey, "primary-key", []string{"id"}, "primary key columns")
	cmd.PersistentFlags().StringVar(&opts.strategy, "strategy", string(settings.StrategyNone), "caching strategy used unless settings override it")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every table call")
	cmd.PersistentFlags().StringVar(&opts.settingsFile, "settings", "", "runtime settings file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.redisAddr, "redis", "", "redis address for the lazy strategy cache, in-process cache when empty")
	cmd.PersistentFlags().DurationVar(&opts.cacheTTL, "cache-ttl", time.Minute, "TTL of lazily cached reads")
	cmd.PersistentFlags().DurationVar(&opts.slowThreshold, "slow-threshold", 0, "log statements slower than this")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "the log level")
	_ = cmd.MarkPersistentFlagRequired("table")

	cmd.AddCommand(
		newGetCommand(opts),
		newCountCommand(opts),
		newInsertCommand(opts),
		newDeleteCommand(opts),
		newWatchCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// env is everything a command needs to talk to one table.
type env struct {
	logger *zap.Logger
	bus    *events.Bus
	file   *settings.File
	ic     *sqlstore.Interceptor
	proxy  *tablecache.Proxy
	close  []func()
}

func (e *env) Close() {
	for i := len(e.close) - 1; i >= 0; i-- {
		e.close[i]()
	}
}

// setup opens the database and builds the table proxy. When load is set a
// settings file is read once; otherwise the caller runs its watcher.
func setup(opts *options, load bool) (*env, error) {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	e := &env{
		logger: logger,
		bus:    events.NewBus(),
	}
	e.close = append(e.close, func() { _ = logger.Sync() })

	dialect, err := sqlstore.ParseDialect(opts.dialect)
	if err != nil {
		e.Close()
		return nil, err
	}
	strategy, err := settings.ParseStrategy(opts.strategy)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.ic = sqlstore.NewInterceptor(&sqlstore.InterceptorConfig{
		Logger:        logger,
		SlowThreshold: opts.slowThreshold,
	})
	db, err := sqlstore.Open(dialect, opts.dsn, e.ic)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.close = append(e.close, func() { _ = db.Close() })
	store, err := sqlstore.New(&sqlstore.Config{
		DB:      db,
		Dialect: dialect,
		Logger:  logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	var src settings.Source = settings.NewStatic(settings.Settings{})
	if opts.settingsFile != "" {
		e.file, err = settings.NewFile(opts.settingsFile, e.bus, logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		if load {
			e.close = append(e.close, func() { _ = e.file.Close() })
			if err := e.file.Load(); err != nil {
				e.Close()
				return nil, err
			}
		}
		src = e.file
	}

	var backend cache.Cacher
	if opts.redisAddr != "" {
		rc := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{opts.redisAddr},
		})
		e.close = append(e.close, func() { _ = rc.Close() })
		if err := rc.Ping(context.Background()).Err(); err != nil {
			e.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		backend = tablecache.NewRedis(rc, "tablecache:")
	}

	e.proxy, err = tablecache.NewProxy(&tablecache.Config{
		Storage:         store,
		Table:           opts.table,
		PrimaryKey:      table.PrimaryKey(opts.primaryKey),
		CachingStrategy: strategy,
		Debug:           opts.debug,
		Settings:        src,
		Events:          e.bus,
		Cache:           backend,
		CacheTTL:        opts.cacheTTL,
		Logger:          logger,
		OnError: func(err error) {
			logger.Warn("table cache error", zap.Error(err))
		},
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.close = append(e.close, func() {
		_ = e.proxy.Destroy(context.Background())
		s := e.ic.Stats(opts.table)
		logger.Debug("statement statistics",
			zap.Uint64("queries", s.Queries),
			zap.Uint64("execs", s.Execs),
			zap.Uint64("rows", s.Rows),
			zap.Uint64("errors", s.Errors),
		)
	})
	return e, nil
}

// parseConditions turns col=value arguments into conditions. Values that
// parse as integers, floats or booleans are bound as such, "null" as NULL.
func parseConditions(args []string) (table.Conditions, error) {
	conds := make(table.Conditions, len(args))
	for _, arg := range args {
		i := strings.IndexByte(arg, '=')
		if i <= 0 {
			return nil, fmt.Errorf("expected column=value, got %q", arg)
		}
		conds[arg[:i]] = parseValue(arg[i+1:])
	}
	return conds, nil
}

func parseValue(s string) interface{} {
	if s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
