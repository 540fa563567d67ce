package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache"
	"github.com/prashanthpai/tablecache/cache"
	"github.com/prashanthpai/tablecache/events"
	"github.com/prashanthpai/tablecache/settings"
	"github.com/prashanthpai/tablecache/sqlstore"
	"github.com/prashanthpai/tablecache/table"
)

const (
	defaultMaxRecordsToCache = 100
)

func newRistrettoCache(maxRecordsToCache int64) (cache.Cacher, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxRecordsToCache,
		MaxCost:     maxRecordsToCache,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return tablecache.NewRistretto(c), nil
}

func newRedisCache() (cache.Cacher, error) {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"127.0.0.1:6379"},
	})

	if _, err := r.Ping(context.TODO()).Result(); err != nil {
		return nil, err
	}

	return tablecache.NewRedis(r, "tc:"), nil
}

func main() {

	c, err := newRistrettoCache(defaultMaxRecordsToCache)
	if err != nil {
		log.Fatalf("newRistrettoCache() failed: %v", err)
	}

	/*
		c, err := newRedisCache()
		if err != nil {
			log.Fatalf("newRedisCache() failed: %v", err)
		}
	*/

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment() failed: %v", err)
	}
	defer logger.Sync()

	ic := sqlstore.NewInterceptor(&sqlstore.InterceptorConfig{
		Logger:        logger,
		SlowThreshold: 100 * time.Millisecond,
	})

	defer func() {
		fmt.Printf("\nStatement metrics for books: %+v\n", ic.Stats("books"))
	}()

	if err := run(c, ic, logger); err != nil {
		log.Fatalf("run() failed: %v", err)
	}
}

func run(c cache.Cacher, ic *sqlstore.Interceptor, logger *zap.Logger) error {

	db, err := sqlstore.Open(sqlstore.DialectPostgres,
		"host=127.0.0.1 port=5432 user=prashanthpai dbname=postgres sslmode=disable", ic)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.PingContext(context.TODO()); err != nil {
		return fmt.Errorf("db.PingContext() failed: %w", err)
	}

	store, err := sqlstore.New(&sqlstore.Config{
		DB:      db,
		Dialect: sqlstore.DialectPostgres,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	bus := events.NewBus()
	src := settings.NewStatic(settings.Settings{})

	books, err := tablecache.NewProxy(&tablecache.Config{
		Storage:  store,
		Table:    "books",
		Settings: src,
		Events:   bus,
		Cache:    c, // pick a Cacher implementation of your choice (redis or ristretto)
		CacheTTL: 5 * time.Second,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer books.Destroy(context.TODO())

	if err := books.Initialize(context.TODO()); err != nil {
		return err
	}

	// every five iterations move to the next strategy
	strategies := tablecache.Strategies()
	for i := 0; i < 15; i++ {
		if i%5 == 0 {
			s := strategies[(i/5)%len(strategies)]
			src.Update(func(st *settings.Settings) {
				st.DatabaseOptimizations.CachingStrategy = settings.StrategyPtr(s)
			})
			bus.Publish(context.TODO(), events.EnvironmentUpdated)
		}

		start := time.Now()
		n, err := doQuery(books)
		if err != nil {
			return fmt.Errorf("doQuery() failed: %w", err)
		}
		cfg, _ := books.ActiveConfig()
		fmt.Printf("i=%d; strategy=%s; books=%d; t=%s\n", i, cfg.CachingStrategy, n, time.Since(start))
		time.Sleep(1 * time.Second)
	}

	return nil
}

func doQuery(books table.Table) (int, error) {

	records, err := books.GetManyWhere(context.TODO(), table.Query{
		Where: table.Where{{Column: "pages", Op: table.OpGt, Value: 10}},
		Options: table.Options{
			Limit: 10,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("GetManyWhere() failed: %w", err)
	}

	for _, r := range records {
		if _, ok := r["name"].(string); !ok {
			return 0, fmt.Errorf("unexpected name %v", r["name"])
		}
	}

	return len(records), nil
}
