package filewatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

// FsWatcher reports new files through OS notifications. Writes that follow
// a Create within the settle window are folded into a single event.
type FsWatcher struct {
	watcher      *fsnotify.Watcher
	events       chan outbound.FileChangeEvent
	errors       chan error
	createEvents chan string
	debouncer    map[string]*time.Timer
	watchedDirs  map[string]bool
	settle       time.Duration
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	running      bool
	stopped      bool
	closed       chan struct{}
	filtered     chan struct{}
}

func NewFSWatcher(settle time.Duration) (outbound.FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FsWatcher{
		watcher:      fsWatcher,
		events:       make(chan outbound.FileChangeEvent, 1000),
		errors:       make(chan error, 100),
		createEvents: make(chan string, 100),
		debouncer:    make(map[string]*time.Timer),
		watchedDirs:  make(map[string]bool),
		settle:       settle,
		ctx:          ctx,
		cancel:       cancel,
		closed:       make(chan struct{}),
		filtered:     make(chan struct{}),
	}

	go fw.filterToCreateEvents()
	go fw.processCreateEvents()

	return fw, nil
}

// Watch adds path until Stop is called or ctx is cancelled. Cancelling ctx
// releases the directory so it can be watched again.
func (fw *FsWatcher) Watch(ctx context.Context, path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return fmt.Errorf("fsnotify watcher stopped")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	if fw.watchedDirs[dir] {
		return nil
	}
	if len(fw.watchedDirs) > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, dir)
	}

	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	fw.watchedDirs[dir] = true
	fw.running = true
	go fw.releaseOnDone(ctx, dir)

	// fsnotify only sees future changes; report what is already there
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed initial scan of %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fw.debounceLocked(filepath.Join(dir, entry.Name()))
	}

	return nil
}

func (fw *FsWatcher) Stop() error {
	fw.mu.Lock()

	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}

	// cancel context to stop processing
	fw.cancel()

	fw.cleanupDebouncers()

	err := fw.watcher.Close()

	fw.running = false
	fw.stopped = true
	fw.mu.Unlock()

	// wait for goroutines to finish
	<-fw.filtered
	<-fw.closed

	close(fw.events)
	close(fw.errors)

	if err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}
	return nil
}

func (fw *FsWatcher) Events() <-chan outbound.FileChangeEvent {
	return fw.events
}

func (fw *FsWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FsWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

func (fw *FsWatcher) GetWatchedPaths() []string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}

// releaseOnDone removes dir from the OS watch when the caller's ctx ends
func (fw *FsWatcher) releaseOnDone(ctx context.Context, dir string) {
	select {
	case <-fw.ctx.Done():
		return
	case <-ctx.Done():
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped || !fw.watchedDirs[dir] {
		return
	}
	if err := fw.watcher.Remove(dir); err != nil {
		select {
		case fw.errors <- fmt.Errorf("unwatch %s: %w", dir, err):
		default:
		}
	}
	fw.cleanupDebouncers()
	delete(fw.watchedDirs, dir)
	fw.running = false
}

// filterToCreateEvents keeps Create events and Writes to files still settling
func (fw *FsWatcher) filterToCreateEvents() {
	defer close(fw.filtered)

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			switch {
			case event.Has(fsnotify.Create):
				fw.debounceEvent(event.Name)
			case event.Has(fsnotify.Write):
				fw.extendPending(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.errors <- err:
			case <-fw.ctx.Done():
				return
			}
		}
	}
}

// processCreateEvents turns settled paths into FileChangeEvents
func (fw *FsWatcher) processCreateEvents() {
	defer close(fw.closed)

	for {
		select {
		case <-fw.ctx.Done():
			return

		case path := <-fw.createEvents:
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				// removed again before settling, or a subdirectory
				continue
			}

			select {
			case fw.events <- outbound.FileChangeEvent{FilePath: path, EventType: "create"}:
			case <-fw.ctx.Done():
				return
			}
		}
	}
}

func (fw *FsWatcher) debounceEvent(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.debounceLocked(name)
}

// debounceLocked (re)arms the settle timer for name; fw.mu must be held
func (fw *FsWatcher) debounceLocked(name string) {
	if fw.stopped {
		return
	}

	if timer, exists := fw.debouncer[name]; exists {
		timer.Stop()
	}

	fw.debouncer[name] = time.AfterFunc(fw.settle, func() {
		fw.mu.Lock()
		delete(fw.debouncer, name)
		fw.mu.Unlock()

		select {
		case fw.createEvents <- name:
		case <-fw.ctx.Done():
		}
	})
}

// extendPending re-arms the timer only for files whose Create is still settling
func (fw *FsWatcher) extendPending(name string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, pending := fw.debouncer[name]; pending {
		fw.debounceLocked(name)
	}
}

// cleanupDebouncers stops and removes all settle timers
func (fw *FsWatcher) cleanupDebouncers() {
	for _, timer := range fw.debouncer {
		timer.Stop()
	}
	fw.debouncer = make(map[string]*time.Timer)
}
