package tablecache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache/cache"
	"github.com/prashanthpai/tablecache/settings"
	"github.com/prashanthpai/tablecache/table"
)

type tableParams struct {
	storage    table.Storage
	name       string
	primaryKey table.PrimaryKey
	cache      cache.Cacher
	cacheTTL   time.Duration
	keyFunc    KeyFunc
	logger     *zap.Logger
	onError    func(error)
}

type constructor func(p tableParams) (table.Table, error)

var registry = map[settings.Strategy]constructor{
	settings.StrategyNone: func(p tableParams) (table.Table, error) {
		return NewNoCacheTable(p.storage, p.name, p.primaryKey), nil
	},
	settings.StrategyEager: func(p tableParams) (table.Table, error) {
		return NewEagerTable(p.storage, p.name, p.primaryKey), nil
	},
	settings.StrategyLazy: func(p tableParams) (table.Table, error) {
		return NewLazyTable(&LazyConfig{
			Storage:    p.storage,
			Table:      p.name,
			PrimaryKey: p.primaryKey,
			Cache:      p.cache,
			TTL:        p.cacheTTL,
			KeyFunc:    p.keyFunc,
			OnError:    p.onError,
		})
	},
}

// createTable builds the table for cfg, debug wrapped when cfg asks for it.
func createTable(cfg settings.TableConfig, p tableParams) (table.Table, error) {
	newTable, ok := registry[cfg.CachingStrategy]
	if !ok {
		return nil, fmt.Errorf("table %q: %w: %q", p.name, settings.ErrUnknownStrategy, string(cfg.CachingStrategy))
	}
	t, err := newTable(p)
	if err != nil {
		return nil, fmt.Errorf("table %q: create %s strategy: %w", p.name, cfg.CachingStrategy, err)
	}
	if cfg.Debug {
		t = NewDebugTable(t, p.name, p.primaryKey, p.logger)
	}
	return t, nil
}

// Strategies returns the names of the registered caching strategies.
func Strategies() []settings.Strategy {
	return []settings.Strategy{
		settings.StrategyNone,
		settings.StrategyEager,
		settings.StrategyLazy,
	}
}
