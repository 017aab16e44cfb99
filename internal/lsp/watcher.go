// internal/lsp/watcher.go
package lsp

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// WatcherConfig holds configuration for the debounced watcher
type WatcherConfig struct {
	DebounceDuration time.Duration
	ParallelFiles    int
	WatchPatterns    []string
	IgnorePatterns   []string
}

// DefaultWatcherConfig watches every file and ignores dependency and VCS
// directories. Files in languages without a grammar are dropped later.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 300 * time.Millisecond,
		ParallelFiles:    3,
		IgnorePatterns: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/vendor/**",
			"**/.treecheck/**",
		},
	}
}

// DebouncedWatcher batches document changes and triggers a check once the
// documents have been quiet for the debounce period.
type DebouncedWatcher struct {
	config    WatcherConfig
	onTrigger func(uris []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewDebouncedWatcher creates a watcher with default configuration
func NewDebouncedWatcher(debounce time.Duration, onTrigger func(uris []string)) *DebouncedWatcher {
	cfg := DefaultWatcherConfig()
	cfg.DebounceDuration = debounce
	return NewDebouncedWatcherWithConfig(cfg, onTrigger)
}

// NewDebouncedWatcherWithConfig creates a watcher with custom configuration
func NewDebouncedWatcherWithConfig(cfg WatcherConfig, onTrigger func(uris []string)) *DebouncedWatcher {
	if onTrigger == nil {
		panic("onTrigger callback cannot be nil")
	}
	if cfg.DebounceDuration == 0 {
		cfg.DebounceDuration = DefaultWatcherConfig().DebounceDuration
	}
	if cfg.ParallelFiles == 0 {
		cfg.ParallelFiles = DefaultWatcherConfig().ParallelFiles
	}
	return &DebouncedWatcher{
		config:    cfg,
		onTrigger: onTrigger,
		pending:   make(map[string]struct{}),
	}
}

// UpdateConfig replaces the non-zero fields of the configuration.
func (w *DebouncedWatcher) UpdateConfig(cfg WatcherConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if cfg.DebounceDuration > 0 {
		w.config.DebounceDuration = cfg.DebounceDuration
	}
	if cfg.ParallelFiles > 0 {
		w.config.ParallelFiles = cfg.ParallelFiles
	}
	if len(cfg.WatchPatterns) > 0 {
		w.config.WatchPatterns = cfg.WatchPatterns
	}
	if len(cfg.IgnorePatterns) > 0 {
		w.config.IgnorePatterns = cfg.IgnorePatterns
	}
}

func (w *DebouncedWatcher) Config() WatcherConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}

// FileChanged queues a document and restarts the quiet period.
func (w *DebouncedWatcher) FileChanged(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[uri] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDuration, w.flush)
}

func (w *DebouncedWatcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	uris := make([]string, 0, len(w.pending))
	for u := range w.pending {
		uris = append(uris, u)
	}
	sort.Strings(uris)
	w.pending = make(map[string]struct{})
	parallel := w.config.ParallelFiles
	w.mu.Unlock()

	if parallel <= 1 || len(uris) <= parallel {
		w.onTrigger(uris)
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)
	for _, u := range uris {
		wg.Add(1)
		sem <- struct{}{}
		go func(uri string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.onTrigger([]string{uri})
		}(u)
	}
	wg.Wait()
}

// Stop drops pending changes; later changes are ignored.
func (w *DebouncedWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *DebouncedWatcher) ShouldWatch(path string) bool {
	cfg := w.Config()
	return ShouldWatchPath(path, cfg.WatchPatterns, cfg.IgnorePatterns)
}

// ShouldWatchPath reports whether path matches a watch pattern (or there
// are none) and no ignore pattern. Patterns use doublestar syntax and are
// matched against the slash-separated path without its file:// scheme.
func ShouldWatchPath(path string, watchPatterns, ignorePatterns []string) bool {
	p := strings.TrimPrefix(strings.TrimPrefix(path, "file://"), "/")

	for _, pattern := range ignorePatterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return false
		}
	}
	if len(watchPatterns) == 0 {
		return true
	}
	for _, pattern := range watchPatterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
