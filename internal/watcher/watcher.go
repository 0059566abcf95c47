// Package watcher flushes cached service routers when a routes file or a
// service config file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before OnChange runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors the directories of every service.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]bool // absolute paths that trigger a change
	dirs      []string
	pending   map[string]bool // dirs not created yet, retried on Create events
	debounce  time.Duration
	onChange  func()
	log       logger.Logger
}

// Config holds watcher configuration options.
type Config struct {
	Services    []*domain.Service
	DebounceDur time.Duration
	OnChange    func()
}

// New creates a watcher for the routes and service config files of every
// service of cfg.
func New(cfg Config, log logger.Logger) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watcher: OnChange is required")
	}
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = DefaultDebounce
	}
	if log == nil {
		log = logger.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		files:     make(map[string]bool),
		pending:   make(map[string]bool),
		debounce:  cfg.DebounceDur,
		onChange:  cfg.OnChange,
		log:       log,
	}

	seen := make(map[string]bool)
	for _, svc := range cfg.Services {
		for _, file := range []string{svc.RoutesFile(), svc.ServiceConfigFile()} {
			file = filepath.Clean(file)
			w.files[file] = true
			if dir := filepath.Dir(file); !seen[dir] {
				seen[dir] = true
				w.dirs = append(w.dirs, dir)
			}
		}
	}
	return w, nil
}

// Start registers the service directories and processes events in the
// background until ctx is done. A directory that does not exist yet is
// picked up once it is created, through its nearest existing parent.
func (w *Watcher) Start(ctx context.Context) {
	for _, dir := range w.dirs {
		if !w.watch(dir) {
			w.pending[dir] = true
		}
	}
	w.log.Info("watching service files",
		logger.Int("directories", len(w.dirs)-len(w.pending)),
		logger.Int("pending", len(w.pending)),
		logger.Duration("debounce", w.debounce))

	go func() {
		defer func() { _ = w.fsWatcher.Close() }()
		w.loop(ctx)
	}()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			relevant := w.isRelevantEvent(event)
			if event.Op&fsnotify.Create != 0 && len(w.pending) > 0 && w.addPending() > 0 {
				// Files may have landed before the directory was watched.
				relevant = true
			}
			if !relevant {
				continue
			}
			w.log.Debug("service file changed", logger.String("file", event.Name), logger.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-fire:
			timer = nil
			w.onChange()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", logger.Error(err))

		case <-ctx.Done():
			return
		}
	}
}

// addPending watches the pending directories that exist by now and returns
// how many it added.
func (w *Watcher) addPending() int {
	added := 0
	for dir := range w.pending {
		if !w.watch(dir) {
			continue
		}
		delete(w.pending, dir)
		added++
		w.log.Info("watching new service directory", logger.String("dir", dir))
	}
	return added
}

// watch adds dir to the watcher and reports whether it is watched. A
// missing dir has its nearest existing ancestor watched instead, so its
// creation shows up as an event.
func (w *Watcher) watch(dir string) bool {
	var missing []string
	for p := dir; w.fsWatcher.Add(p) != nil; p = filepath.Dir(p) {
		if filepath.Dir(p) == p {
			w.log.Warn("directory missing and no parent to watch", logger.String("dir", dir))
			return false
		}
		missing = append(missing, p)
	}
	// Descendants created while walking up.
	for i := len(missing) - 1; i >= 0; i-- {
		if w.fsWatcher.Add(missing[i]) != nil {
			return false
		}
	}
	return true
}

// isRelevantEvent reports whether event touches a watched file.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}
