package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/prashanthpai/tablecache/events"
)

// Publisher is the part of events.Bus a File needs.
type Publisher interface {
	Publish(ctx context.Context, topic string) int
}

// File is a Source backed by a YAML, TOML or JSON file. Run watches the file
// and publishes events.EnvironmentUpdated after every successful reload.
// A file that fails to parse leaves the previous Settings in place.
type File struct {
	path    string
	pub     Publisher
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	src     *Static
}

// NewFile creates a file source. pub may be nil when nobody needs change
// notifications; logger may be nil.
func NewFile(path string, pub Publisher, logger *zap.Logger) (*File, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".toml", ".json":
	default:
		return nil, fmt.Errorf("unsupported settings file extension %q", ext)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{
		path:    path,
		pub:     pub,
		logger:  logger.With(zap.String("settings_file", path)),
		watcher: watcher,
		src:     NewPending(),
	}, nil
}

// Ready implements Source. It returns once the file was loaded successfully.
func (f *File) Ready(ctx context.Context) error {
	return f.src.Ready(ctx)
}

// Settings implements Source.
func (f *File) Settings() Settings {
	return f.src.Settings()
}

// Load reads and applies the file once.
func (f *File) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	s, err := decode(f.path, data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	f.src.Set(s)
	f.src.MarkReady()
	return nil
}

func decode(path string, data []byte) (Settings, error) {
	var s Settings
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".json":
		err = json.Unmarshal(data, &s)
	default:
		err = yaml.Unmarshal(data, &s)
	}
	return s, err
}

// Close releases the watcher of a File that is never Run.
func (f *File) Close() error {
	return f.watcher.Close()
}

// Run loads the file and then watches it until stop is closed. The parent
// directory is watched so that editors replacing the file are noticed.
func (f *File) Run(stop chan struct{}) error {
	f.logger.Info("settings file watcher started")
	defer f.logger.Info("settings file watcher exited")

	if err := f.Load(); err != nil {
		_ = f.watcher.Close()
		return err
	}
	if err := f.watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = f.watcher.Close()
		return err
	}

	target := filepath.Clean(f.path)
	for {
		select {
		case <-stop:
			if err := f.watcher.Close(); err != nil {
				f.logger.Error("failed to close watcher",
					zap.Error(err),
				)
			}
			return nil
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("detected watch errors",
				zap.Error(err),
			)
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				f.logger.Debug("ignore unnecessary file change event",
					zap.String("type", ev.Op.String()),
				)
				continue
			}
			f.handleChange(ev)
		}
	}
}

func (f *File) handleChange(ev fsnotify.Event) {
	if err := f.Load(); err != nil {
		f.logger.Error("failed to reload settings",
			zap.Error(err),
			zap.String("type", ev.Op.String()),
		)
		return
	}
	f.logger.Info("settings reloaded",
		zap.String("type", ev.Op.String()),
	)
	if f.pub != nil {
		f.pub.Publish(context.Background(), events.EnvironmentUpdated)
	}
}
