// Package watch triggers pipeline operations when source files change.
//
// A Session observes the directories implied by each binding's glob
// patterns. Raw filesystem events are debounced per path so editor save
// bursts collapse into one trigger, then routed to every binding whose
// globs match. Each binding runs serialized with latest-wins coalescing,
// while distinct bindings run concurrently.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/skillsenselab/assetpipe/logger"
)

// DefaultDebounce is the settle window applied to raw filesystem events.
const DefaultDebounce = 250 * time.Millisecond

// Session watches the filesystem and dispatches changes to bindings.
type Session struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	bindings []*boundOp
	log      *logger.Logger

	mu          sync.Mutex
	debounceMap map[string]time.Time
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	wg          sync.WaitGroup
}

// Option customizes a Session.
type Option func(*Session)

// WithRoot sets the directory that glob patterns are resolved against.
// Defaults to the current working directory.
func WithRoot(root string) Option {
	return func(s *Session) { s.root = root }
}

// WithDebounce overrides the event settle window.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

// NewSession creates a watch session for the given bindings.
func NewSession(bindings []Binding, opts ...Option) (*Session, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &Session{
		root:        ".",
		debounce:    DefaultDebounce,
		watcher:     watcher,
		log:         logger.Get("watch"),
		debounceMap: make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, b := range bindings {
		s.bindings = append(s.bindings, newBoundOp(b))
	}
	return s, nil
}

// Start begins watching. It is non-blocking; the event loop and one
// dispatcher per binding run in goroutines until Stop or context cancel.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	dirs := s.watchDirs()
	for _, dir := range dirs {
		if err := s.watcher.Add(dir); err != nil {
			s.log.Warn("Watch failed for directory", map[string]interface{}{
				"path":  dir,
				"error": err.Error(),
			})
			continue
		}
		s.log.Debug("Watching directory", map[string]interface{}{"path": dir})
	}
	s.log.Info("Watch session started", map[string]interface{}{
		"directories": len(dirs),
		"bindings":    len(s.bindings),
	})

	for _, b := range s.bindings {
		s.wg.Add(1)
		go func(b *boundOp) {
			defer s.wg.Done()
			b.dispatch(ctx, s.stopCh, s.log)
		}(b)
	}

	go s.run(ctx)
	return nil
}

// Stop shuts the session down and waits for in-flight dispatchers.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.wg.Wait()

	if err := s.watcher.Close(); err != nil {
		s.log.Error("Error closing watcher", map[string]interface{}{"error": err.Error()})
	}
	s.log.Info("Watch session stopped")
}

// WatchedDirs returns the directories currently being observed.
func (s *Session) WatchedDirs() []string {
	return s.watcher.WatchList()
}

// run is the main event loop.
func (s *Session) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.stopCh:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Error("Watcher error", map[string]interface{}{"error": err.Error()})

		case <-ticker.C:
			s.flushSettled()
		}
	}
}

// handleEvent records a relevant filesystem event for debouncing. New
// directories are added to the watcher so nested creations are seen.
func (s *Session) handleEvent(event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := s.watcher.Add(event.Name); err == nil {
				s.log.Debug("Watching new directory", map[string]interface{}{"path": event.Name})
			}
			return
		}
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
	default:
		// chmod and friends
		return
	}

	if !s.matchesAny(event.Name) {
		return
	}

	s.mu.Lock()
	s.debounceMap[event.Name] = time.Now()
	s.mu.Unlock()
}

// flushSettled routes paths that have been quiet past the debounce
// window to every matching binding.
func (s *Session) flushSettled() {
	s.mu.Lock()
	now := time.Now()
	settled := make([]string, 0)
	for path, at := range s.debounceMap {
		if now.Sub(at) >= s.debounce {
			settled = append(settled, path)
			delete(s.debounceMap, path)
		}
	}
	s.mu.Unlock()

	for _, path := range settled {
		rel, abs := s.matchTargets(path)
		for _, b := range s.bindings {
			if matchGlobs(b.Globs, rel, abs) {
				b.enqueue(path)
			}
		}
	}
}

func (s *Session) matchesAny(path string) bool {
	rel, abs := s.matchTargets(path)
	for _, b := range s.bindings {
		if matchGlobs(b.Globs, rel, abs) {
			return true
		}
	}
	return false
}

// matchTargets returns the two slash-form candidates a path is matched
// under: relative to the session root, and absolute.
func (s *Session) matchTargets(path string) (rel, abs string) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	abs = path
	if a, err := filepath.Abs(path); err == nil {
		abs = a
	}
	return filepath.ToSlash(rel), filepath.ToSlash(abs)
}

// watchDirs derives the set of directories to observe from all binding
// globs: each pattern's fixed prefix plus its subdirectories.
func (s *Session) watchDirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	for _, b := range s.bindings {
		for _, g := range b.Globs {
			base, _ := doublestar.SplitPattern(g)
			root := filepath.FromSlash(base)
			if !filepath.IsAbs(root) {
				root = filepath.Join(s.root, root)
			}
			info, err := os.Stat(root)
			if err != nil || !info.IsDir() {
				root = filepath.Dir(root)
			}
			_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					add(path)
				}
				return nil
			})
		}
	}
	return dirs
}

// matchGlobs reports whether a path matches any pattern. Absolute
// patterns are matched against the absolute candidate, relative patterns
// against the root-relative one.
func matchGlobs(globs []string, rel, abs string) bool {
	for _, g := range globs {
		target := rel
		if filepath.IsAbs(filepath.FromSlash(g)) {
			target = abs
		}
		if ok, err := doublestar.Match(g, target); err == nil && ok {
			return true
		}
	}
	return false
}
