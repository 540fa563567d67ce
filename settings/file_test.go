package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prashanthpai/tablecache/events"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFileDecodeFormats(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"settings.yaml": `
database_optimizations:
  caching_strategy: lazy
database_table_optimizations:
  t:
    caching_strategy: eager
    debug: true
`,
		"settings.toml": `
[database_optimizations]
caching_strategy = "lazy"

[database_table_optimizations.t]
caching_strategy = "eager"
debug = true
`,
		"settings.json": `{
  "database_optimizations": {"caching_strategy": "lazy"},
  "database_table_optimizations": {"t": {"caching_strategy": "eager", "debug": true}}
}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			assert := require.New(t)
			path := filepath.Join(dir, name)
			writeFile(t, path, content)

			f, err := NewFile(path, nil, nil)
			assert.Nil(err)
			defer f.Close()
			assert.Nil(f.Load())
			assert.Nil(f.Ready(context.Background()))

			s := f.Settings()
			assert.Equal(StrategyLazy, *s.DatabaseOptimizations.CachingStrategy)
			assert.Equal(TableConfig{CachingStrategy: StrategyEager, Debug: true}, Resolve(TableConfig{}, s, "t"))
			assert.Equal(TableConfig{CachingStrategy: StrategyLazy}, Resolve(TableConfig{}, s, "u"))
		})
	}
}

func TestFileRejects(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()

	_, err := NewFile(filepath.Join(dir, "settings.ini"), nil, nil)
	assert.NotNil(err)

	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "database_optimizations:\n  caching_strategy: sometimes\n")
	f, err := NewFile(path, nil, nil)
	assert.Nil(err)
	defer f.Close()
	assert.NotNil(f.Load())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.NotNil(f.Ready(ctx), "a file that never loaded is never ready")
}

func TestFileWatchPublishes(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	writeFile(t, path, "database_optimizations:\n  caching_strategy: none\n")

	bus := events.NewBus()
	updated := make(chan struct{}, 8)
	bus.Subscribe(events.EnvironmentUpdated, func(ctx context.Context) {
		updated <- struct{}{}
	})

	f, err := NewFile(path, bus, zap.NewNop())
	assert.Nil(err)

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.Run(stop)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Nil(f.Ready(ctx))
	assert.Equal(StrategyNone, Resolve(TableConfig{}, f.Settings(), "t").CachingStrategy)

	// the watch is registered right after the initial load
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "database_optimizations:\n  caching_strategy: eager\n")

	// truncation may surface as its own write event, so wait for the final state
	assert.Eventually(func() bool {
		return Resolve(TableConfig{}, f.Settings(), "t").CachingStrategy == StrategyEager
	}, 2*time.Second, 10*time.Millisecond)
	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("no environment update arrived in time")
	}

	close(stop)
	select {
	case err := <-done:
		assert.Nil(err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
