// Package settings resolves the runtime table configuration: which caching
// strategy a table uses and whether it is debug wrapped.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Strategy names a caching strategy. The empty value means unset.
type Strategy string

const (
	// StrategyNone passes every operation through to storage.
	StrategyNone Strategy = "none"
	// StrategyEager mirrors the whole table in memory.
	StrategyEager Strategy = "eager"
	// StrategyLazy caches query results on demand.
	StrategyLazy Strategy = "lazy"
)

var (
	// ErrUnknownStrategy means a configuration names a strategy that has no
	// implementation. It is a configuration defect and is not recovered from.
	ErrUnknownStrategy = errors.New("unknown caching strategy")
)

// ParseStrategy parses a case-insensitive strategy name.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Validate returns ErrUnknownStrategy for anything but the three known names.
func (s Strategy) Validate() error {
	switch s {
	case StrategyNone, StrategyEager, StrategyLazy:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStrategy, string(s))
}

// TableConfig is the resolved configuration of one table.
type TableConfig struct {
	CachingStrategy Strategy
	Debug           bool
}

// Defaults is the lowest precedence layer of every resolution.
var Defaults = TableConfig{
	CachingStrategy: StrategyNone,
	Debug:           false,
}

// Overrides is a partial TableConfig. Nil fields leave the lower layer alone.
type Overrides struct {
	CachingStrategy *Strategy `json:"caching_strategy,omitempty" yaml:"caching_strategy,omitempty" toml:"caching_strategy,omitempty"`
	Debug           *bool     `json:"debug,omitempty" yaml:"debug,omitempty" toml:"debug,omitempty"`
}

// Apply returns base with the non-nil fields of o written over it.
func (o Overrides) Apply(base TableConfig) TableConfig {
	if o.CachingStrategy != nil && *o.CachingStrategy != "" {
		base.CachingStrategy = *o.CachingStrategy
	}
	if o.Debug != nil {
		base.Debug = *o.Debug
	}
	return base
}

// Settings is the runtime optimisation state published by a Source.
type Settings struct {
	// DatabaseOptimizations applies to every table.
	DatabaseOptimizations Overrides `json:"database_optimizations" yaml:"database_optimizations" toml:"database_optimizations"`
	// DatabaseTableOptimizations applies per table name and wins over
	// DatabaseOptimizations.
	DatabaseTableOptimizations map[string]Overrides `json:"database_table_optimizations" yaml:"database_table_optimizations" toml:"database_table_optimizations"`
}

// Validate checks every strategy named in s.
func (s Settings) Validate() error {
	if st := s.DatabaseOptimizations.CachingStrategy; st != nil && *st != "" {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("database_optimizations: %w", err)
		}
	}
	for name, o := range s.DatabaseTableOptimizations {
		if o.CachingStrategy != nil && *o.CachingStrategy != "" {
			if err := o.CachingStrategy.Validate(); err != nil {
				return fmt.Errorf("database_table_optimizations[%s]: %w", name, err)
			}
		}
	}
	return nil
}

// Resolve merges, in increasing precedence, Defaults, the constructor-level
// base, the global optimisations and the per-table optimisations. It has no
// side effects and reads nothing but its arguments.
func Resolve(base TableConfig, s Settings, table string) TableConfig {
	cfg := Defaults
	if base.CachingStrategy != "" {
		cfg.CachingStrategy = base.CachingStrategy
	}
	cfg.Debug = base.Debug
	cfg = s.DatabaseOptimizations.Apply(cfg)
	if o, ok := s.DatabaseTableOptimizations[table]; ok {
		cfg = o.Apply(cfg)
	}
	return cfg
}

// Source publishes Settings. Ready blocks until the first Settings are
// available or ctx is done.
type Source interface {
	Ready(ctx context.Context) error
	Settings() Settings
}

// StrategyPtr returns a pointer to s, for building Overrides.
func StrategyPtr(s Strategy) *Strategy {
	return &s
}

// BoolPtr returns a pointer to b, for building Overrides.
func BoolPtr(b bool) *bool {
	return &b
}
