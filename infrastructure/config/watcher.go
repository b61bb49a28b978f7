package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads configuration when files under the loader's directory
// change. File watching is only enabled in development; elsewhere Reload can
// still be called explicitly.
type Watcher struct {
	loader    *Loader
	current   *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// NewWatcher starts watching when initial is a development configuration.
func NewWatcher(loader *Loader, initial *Config, logger *zap.Logger) (*Watcher, error) {
	return newWatcher(loader, initial, logger, DefaultDebounce)
}

func newWatcher(loader *Loader, initial *Config, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		loader:   loader,
		current:  initial,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	if !initial.IsDevelopment() {
		close(w.done)
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(loader.BasePath()); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", loader.BasePath(), err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled", zap.String("path", loader.BasePath()))
	return w, nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}
			w.logger.Debug("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error("Configuration reload failed, keeping current", zap.Error(err))
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// Reload loads the configuration again and notifies callbacks when the
// result differs from the current one. An invalid configuration is rejected
// and the current one kept.
func (w *Watcher) Reload() error {
	next, err := w.loader.Load()
	if err != nil {
		return err
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	changes := diff(prev, next)
	if len(changes) == 0 {
		w.logger.Debug("Configuration unchanged after reload")
		return nil
	}
	w.logger.Info("Configuration reloaded", zap.Strings("changes", changes))

	for i, cb := range callbacks {
		w.notify(i, cb, next)
	}
	return nil
}

func (w *Watcher) notify(idx int, cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Configuration callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r))
		}
	}()
	cb(cfg)
}

// OnChange registers a callback run after every effective reload.
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Current returns the latest accepted configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop ends file watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
	<-w.done
}

// diff reports changes to the settings that can be applied at runtime.
func diff(prev, next *Config) []string {
	var changes []string
	if prev.Logging.Level != next.Logging.Level {
		changes = append(changes, fmt.Sprintf("log level: %s -> %s", prev.Logging.Level, next.Logging.Level))
	}
	if prev.AI.Model != next.AI.Model {
		changes = append(changes, fmt.Sprintf("ai model: %s -> %s", prev.AI.Model, next.AI.Model))
	}
	if prev.AI.RateLimit != next.AI.RateLimit {
		changes = append(changes, fmt.Sprintf("ai rate limit: %d -> %d", prev.AI.RateLimit, next.AI.RateLimit))
	}
	return changes
}

func isConfigFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// LogLevelUpdater returns a callback that moves level to the configured one.
func LogLevelUpdater(level zap.AtomicLevel, logger *zap.Logger) func(*Config) {
	return func(cfg *Config) {
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			logger.Warn("Ignoring invalid log level", zap.String("level", cfg.Logging.Level))
			return
		}
		logger.Info("Log level changed", zap.String("level", cfg.Logging.Level))
	}
}
