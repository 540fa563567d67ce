package tablecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache/cache"
	"github.com/prashanthpai/tablecache/events"
	"github.com/prashanthpai/tablecache/settings"
	"github.com/prashanthpai/tablecache/table"
)

// Notifier delivers environment notifications. *events.Bus implements it.
type Notifier interface {
	Subscribe(topic string, h events.Handler) *events.Subscription
}

// Config is the configuration passed to NewProxy for creating new Proxy
// instances.
type Config struct {
	// Storage is the engine shared by every strategy. Required.
	Storage table.Storage
	// Table is the table name. Required.
	Table string
	// PrimaryKey defaults to table.DefaultPrimaryKey.
	PrimaryKey table.PrimaryKey
	// CachingStrategy and Debug are the constructor-level configuration.
	// Runtime settings override them. An empty strategy means none.
	CachingStrategy settings.Strategy
	Debug           bool
	// Settings provides the runtime configuration. Required.
	Settings settings.Source
	// Events delivers events.EnvironmentUpdated notifications. Without it
	// the strategy chosen by Initialize is never swapped.
	Events Notifier
	// Cache, CacheTTL and KeyFunc configure the lazy strategy. See
	// LazyConfig.
	Cache    cache.Cacher
	CacheTTL time.Duration
	KeyFunc  KeyFunc
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// OnError is called with errors that cannot be returned to a caller:
	// lazy cache backend failures and failed swaps triggered by
	// notifications.
	OnError func(error)
}

// target is an installed strategy together with the configuration it was
// built from. Operations hold mu for reading while they run on it.
type target struct {
	table.Table
	strategy settings.Strategy
	debug    bool

	mu        sync.RWMutex
	destroyed bool
}

// Proxy implements table.Table by forwarding every call to the strategy its
// runtime configuration selects, and swaps that strategy when the
// configuration changes.
type Proxy struct {
	name     string
	base     settings.TableConfig
	source   settings.Source
	notifier Notifier
	params   tableParams
	logger   *zap.Logger
	onErr    func(error)

	slot *Slot[*target]

	swapMu    sync.Mutex
	current   *target
	sub       *events.Subscription
	destroyed bool
}

// NewProxy returns a new Proxy initialised with the provided config. The
// Proxy is unusable until Initialize returns.
func NewProxy(config *Config) (*Proxy, error) {
	if config == nil {
		return nil, fmt.Errorf("config can't be nil")
	}
	if config.Storage == nil {
		return nil, fmt.Errorf("storage must be set in Config")
	}
	if config.Table == "" {
		return nil, fmt.Errorf("table must be set in Config")
	}
	if config.Settings == nil {
		return nil, fmt.Errorf("settings must be set in Config")
	}
	if config.CachingStrategy != "" {
		if err := config.CachingStrategy.Validate(); err != nil {
			return nil, err
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pk := config.PrimaryKey
	if len(pk) == 0 {
		pk = table.DefaultPrimaryKey
	}

	p := &Proxy{
		name: config.Table,
		base: settings.TableConfig{
			CachingStrategy: config.CachingStrategy,
			Debug:           config.Debug,
		},
		source:   config.Settings,
		notifier: config.Events,
		logger:   logger.With(zap.String("table", config.Table)),
		onErr:    config.OnError,
		slot:     NewSlot[*target](),
	}
	p.params = tableParams{
		storage:    config.Storage,
		name:       config.Table,
		primaryKey: pk,
		cache:      config.Cache,
		cacheTTL:   config.CacheTTL,
		keyFunc:    config.KeyFunc,
		logger:     logger,
		onError:    config.OnError,
	}
	return p, nil
}

// Initialize subscribes to environment notifications and installs the
// strategy the runtime configuration selects. It waits for the settings
// source to become ready. Calling it again once a strategy is installed does
// nothing.
func (p *Proxy) Initialize(ctx context.Context) error {
	p.swapMu.Lock()
	defer p.swapMu.Unlock()

	if p.destroyed {
		return table.ErrDestroyed
	}
	if p.current != nil {
		return nil
	}

	if p.notifier != nil && p.sub == nil {
		p.sub = p.notifier.Subscribe(events.EnvironmentUpdated, p.onEnvironmentUpdated)
	}

	cfg, err := p.RuntimeConfig(ctx)
	if err == nil {
		err = p.updateTarget(ctx, cfg)
	}
	if err != nil && p.current == nil {
		p.unsubscribe()
	}
	return err
}

// Destroy unsubscribes from notifications and destroys the installed
// strategy. Every later operation fails with table.ErrDestroyed.
func (p *Proxy) Destroy(ctx context.Context) error {
	p.swapMu.Lock()
	defer p.swapMu.Unlock()

	if p.destroyed {
		return nil
	}
	p.destroyed = true
	p.unsubscribe()
	p.slot.Close(table.ErrDestroyed)

	var err error
	if p.current != nil {
		err = p.retire(ctx, p.current)
		p.current = nil
	}
	return err
}

// RuntimeConfig resolves the table's configuration from the settings source
// as of now, waiting for the source to become ready.
func (p *Proxy) RuntimeConfig(ctx context.Context) (settings.TableConfig, error) {
	if err := p.source.Ready(ctx); err != nil {
		return settings.TableConfig{}, fmt.Errorf("table %q: settings not ready: %w", p.name, err)
	}
	return settings.Resolve(p.base, p.source.Settings(), p.name), nil
}

// Target returns the installed strategy, or nil while none is installed.
func (p *Proxy) Target() table.Table {
	t, ok := p.slot.Peek()
	if !ok {
		return nil
	}
	return t.Table
}

// ActiveConfig returns the configuration the installed strategy was built
// from. ok is false while none is installed.
func (p *Proxy) ActiveConfig() (cfg settings.TableConfig, ok bool) {
	t, ok := p.slot.Peek()
	if !ok {
		return cfg, false
	}
	return settings.TableConfig{CachingStrategy: t.strategy, Debug: t.debug}, true
}

// Unwrap strips one decorator, such as DebugTable, off t. Undecorated tables
// are returned as is.
func Unwrap(t table.Table) table.Table {
	if u, ok := t.(interface{ Unwrap() table.Table }); ok {
		return u.Unwrap()
	}
	return t
}

func (p *Proxy) onEnvironmentUpdated(ctx context.Context) {
	p.swapMu.Lock()
	defer p.swapMu.Unlock()

	if p.destroyed || p.current == nil {
		return
	}
	cfg, err := p.RuntimeConfig(ctx)
	if err != nil {
		p.report(err)
		return
	}
	if !shouldUpdateTarget(p.current, cfg) {
		return
	}
	_ = p.updateTarget(ctx, cfg)
}

// shouldUpdateTarget reports whether cfg asks for a different strategy than
// cur runs. Turning debug off alone does not trigger a swap: the decorator
// stays until the strategy itself changes.
func shouldUpdateTarget(cur *target, cfg settings.TableConfig) bool {
	if cfg.Debug && !cur.debug {
		return true
	}
	return cfg.CachingStrategy != cur.strategy
}

// updateTarget replaces the installed strategy with one built for cfg.
// Callers hold swapMu. Operations arriving between clearing the slot and
// installing the replacement wait for it.
func (p *Proxy) updateTarget(ctx context.Context, cfg settings.TableConfig) error {
	t, err := createTable(cfg, p.params)
	if err != nil {
		p.report(err)
		return err
	}
	next := &target{Table: t, strategy: cfg.CachingStrategy, debug: cfg.Debug}

	p.slot.Clear()
	prev := p.current
	if prev != nil {
		p.current = nil
		if err := p.retire(ctx, prev); err != nil {
			p.report(err)
		}
	}

	if err := next.Initialize(ctx); err != nil {
		_ = next.Destroy(ctx)
		err = fmt.Errorf("table %q: initialize %s strategy: %w", p.name, cfg.CachingStrategy, err)
		p.report(err)
		p.install(&target{
			Table:    NewNoCacheTable(p.params.storage, p.name, p.params.primaryKey),
			strategy: settings.StrategyNone,
		})
		return err
	}

	p.install(next)
	if prev != nil {
		p.logger.Info("caching strategy swapped",
			zap.String("from", string(prev.strategy)),
			zap.Bool("from_debug", prev.debug),
			zap.String("to", string(next.strategy)),
			zap.Bool("debug", next.debug),
		)
	} else {
		p.logger.Info("caching strategy installed",
			zap.String("strategy", string(next.strategy)),
			zap.Bool("debug", next.debug),
		)
	}
	return nil
}

func (p *Proxy) install(t *target) {
	p.current = t
	p.slot.Set(t)
}

// retire waits for the operations running on t and destroys it.
func (p *Proxy) retire(ctx context.Context, t *target) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.destroyed = true
	if err := t.Table.Destroy(ctx); err != nil {
		return fmt.Errorf("table %q: destroy %s strategy: %w", p.name, t.strategy, err)
	}
	return nil
}

func (p *Proxy) unsubscribe() {
	p.sub.Unsubscribe()
	p.sub = nil
}

func (p *Proxy) report(err error) {
	p.logger.Error("caching strategy update failed", zap.Error(err))
	if p.onErr != nil {
		p.onErr(err)
	}
}

// acquire returns the installed strategy read-locked. Callers must RUnlock
// it when done.
func (p *Proxy) acquire(ctx context.Context) (*target, error) {
	for {
		t, err := p.slot.Get(ctx)
		if err != nil {
			return nil, err
		}
		t.mu.RLock()
		if !t.destroyed {
			return t, nil
		}
		// retired after we took it from the slot, wait for the replacement
		t.mu.RUnlock()
	}
}

func (p *Proxy) GetMany(ctx context.Context, conds table.Conditions, opts *table.Options) ([]table.Record, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.GetMany(ctx, conds, opts)
}

func (p *Proxy) GetManyWhere(ctx context.Context, q table.Query) ([]table.Record, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.GetManyWhere(ctx, q)
}

func (p *Proxy) GetOne(ctx context.Context, conds table.Conditions, sort ...table.Order) (table.Record, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.GetOne(ctx, conds, sort...)
}

func (p *Proxy) GetOneByPrimaryKey(ctx context.Context, key table.Record) (table.Record, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.GetOneByPrimaryKey(ctx, key)
}

func (p *Proxy) Reduce(ctx context.Context, r table.Reducer, conds table.Conditions) (interface{}, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.mu.RUnlock()
	return t.Reduce(ctx, r, conds)
}

func (p *Proxy) HasAny(ctx context.Context, conds table.Conditions) (bool, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer t.mu.RUnlock()
	return t.HasAny(ctx, conds)
}

func (p *Proxy) Count(ctx context.Context, conds table.Conditions) (int64, error) {
	t, err := p.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer t.mu.RUnlock()
	return t.Count(ctx, conds)
}

func (p *Proxy) Insert(ctx context.Context, record table.Record) error {
	t, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer t.mu.RUnlock()
	return t.Insert(ctx, record)
}

func (p *Proxy) Update(ctx context.Context, updates table.Record, conds table.Conditions) error {
	t, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer t.mu.RUnlock()
	return t.Update(ctx, updates, conds)
}

func (p *Proxy) UpdateWhere(ctx context.Context, updates table.Record, where table.Where) error {
	t, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer t.mu.RUnlock()
	return t.UpdateWhere(ctx, updates, where)
}

func (p *Proxy) Delete(ctx context.Context, conds table.Conditions) error {
	t, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer t.mu.RUnlock()
	return t.Delete(ctx, conds)
}

func (p *Proxy) DeleteByPrimaryKey(ctx context.Context, key table.Record) error {
	t, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer t.mu.RUnlock()
	return t.DeleteByPrimaryKey(ctx, key)
}

var _ table.Table = (*Proxy)(nil)
