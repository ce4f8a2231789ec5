package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the config file watcher
type WatcherConfig struct {
	// Path is the config file to watch
	Path string

	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// Watcher watches a config file and emits reloaded configs on change.
// Editors often replace files via rename, so the parent directory is
// watched rather than the file itself.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	events chan *Config
}

// NewWatcher creates a new config watcher
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		events:  make(chan *Config, 1),
	}, nil
}

// Events returns the channel of reloaded configs
func (w *Watcher) Events() <-chan *Config {
	return w.events
}

// Start begins watching the config file for changes
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.config.Path)); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Config watcher started",
		"path", w.config.Path,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher. The events channel is closed by the processing
// goroutine once it drains, never from here, so a reload in flight cannot
// race a close.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	dirty := false

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.config.Path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				dirty = true
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			w.reload(ctx)
		}
	}
}

// reload parses and validates the config file, emitting it on success
func (w *Watcher) reload(ctx context.Context) {
	config, err := LoadFromFile(w.config.Path)
	if err != nil {
		w.logger.Warn("Failed to reload config",
			"path", w.config.Path,
			"error", err)
		return
	}
	if err := config.Validate(); err != nil {
		w.logger.Warn("Reloaded config is invalid",
			"path", w.config.Path,
			"error", err)
		return
	}

	w.logger.Info("Config reloaded", "path", w.config.Path)

	select {
	case w.events <- config:
	case <-ctx.Done():
	}
}
