package compiler

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// CacheWatcher drops cache entries for local files when they change on
// disk. Attach it to a Reader with WithWatcher; every local file the
// Reader reads is then watched.
//
// The parent directory of each file is watched rather than the file, so
// editors that save by renaming a temporary file are noticed too.
type CacheWatcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	logger  Logger

	mu       sync.Mutex
	locators map[string]map[string]struct{} // absolute path -> locators
	dirs     map[string]bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewCacheWatcher creates a watcher that invalidates entries in cache and
// starts its event loop. Call Close to stop it.
func NewCacheWatcher(cache *Cache, logger Logger) (*CacheWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("compiler: failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = NopLogger{}
	}
	w := &CacheWatcher{
		cache:    cache,
		watcher:  fw,
		logger:   logger,
		locators: make(map[string]map[string]struct{}),
		dirs:     make(map[string]bool),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch starts watching the file named by locator. Watching the same
// locator twice is a no-op.
func (w *CacheWatcher) Watch(locator string) error {
	abs, err := filepath.Abs(locator)
	if err != nil {
		return fmt.Errorf("compiler: cannot resolve %s: %w", locator, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("compiler: cannot watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	set, ok := w.locators[abs]
	if !ok {
		set = make(map[string]struct{})
		w.locators[abs] = set
	}
	set[locator] = struct{}{}
	return nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *CacheWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *CacheWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			w.invalidate(event.Name, event.Op)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *CacheWatcher) invalidate(path string, op fsnotify.Op) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	set := w.locators[abs]
	locators := make([]string, 0, len(set))
	for l := range set {
		locators = append(locators, l)
	}
	w.mu.Unlock()

	for _, l := range locators {
		w.logger.Debug("invalidating cached document", "locator", l, "op", op.String())
		w.cache.Invalidate(l)
	}
}
