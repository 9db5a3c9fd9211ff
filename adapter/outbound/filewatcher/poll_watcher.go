package filewatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

var ErrAlreadyWatching = errors.New("watcher already bound to another directory")

// PollWatcher detects new files by rescanning a directory on a fixed interval.
// A file is reported once its size and modification time are unchanged
// across two consecutive scans, so files still being copied in are held
// back. The first scans report every file already present.
type PollWatcher struct {
	interval    time.Duration
	events      chan outbound.FileChangeEvent
	errors      chan error
	watchedDirs map[string]bool
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	running     bool
	stopped     bool
	loopDone    chan struct{}
}

// fileStamp is what a file must keep between two scans to count as settled
type fileStamp struct {
	size    int64
	modTime time.Time
}

func (f fileStamp) same(other fileStamp) bool {
	return f.size == other.size && f.modTime.Equal(other.modTime)
}

func NewPollWatcher(interval time.Duration) outbound.FileWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &PollWatcher{
		interval:    interval,
		events:      make(chan outbound.FileChangeEvent, 1000),
		errors:      make(chan error, 100),
		watchedDirs: make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Watch starts polling path until Stop is called or ctx is cancelled.
// Cancelling ctx releases the directory so it can be watched again.
func (pw *PollWatcher) Watch(ctx context.Context, path string) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.stopped {
		return fmt.Errorf("poll watcher stopped")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	if pw.watchedDirs[dir] {
		return nil
	}
	if len(pw.watchedDirs) > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", dir)
	}

	// an earlier loop ended by its ctx has already released dir and is only
	// closing its done channel
	if pw.loopDone != nil {
		<-pw.loopDone
	}

	done := make(chan struct{})
	pw.watchedDirs[dir] = true
	pw.running = true
	pw.loopDone = done

	go pw.pollLoop(ctx, dir, done)

	return nil
}

func (pw *PollWatcher) Stop() error {
	pw.mu.Lock()
	if pw.stopped {
		pw.mu.Unlock()
		return nil
	}
	pw.stopped = true
	pw.running = false
	done := pw.loopDone
	pw.cancel()
	pw.mu.Unlock()

	if done != nil {
		<-done
	}

	close(pw.events)
	close(pw.errors)

	return nil
}

func (pw *PollWatcher) Events() <-chan outbound.FileChangeEvent {
	return pw.events
}

func (pw *PollWatcher) Errors() <-chan error {
	return pw.errors
}

func (pw *PollWatcher) IsWatching() bool {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.running
}

func (pw *PollWatcher) GetWatchedPaths() []string {
	pw.mu.RLock()
	defer pw.mu.RUnlock()

	paths := make([]string, 0, len(pw.watchedDirs))
	for path := range pw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}

// pollLoop scans immediately, then on every tick until stopped
func (pw *PollWatcher) pollLoop(ctx context.Context, dir string, done chan struct{}) {
	defer close(done)
	defer pw.release(ctx, dir)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	seen := make(map[string]struct{})
	pending := make(map[string]fileStamp)
	if !pw.scan(ctx, dir, seen, pending) {
		return
	}

	for {
		select {
		case <-pw.ctx.Done():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !pw.scan(ctx, dir, seen, pending) {
				return
			}
		}
	}
}

// release forgets dir when the caller's ctx ended the loop; Stop keeps
// its own bookkeeping
func (pw *PollWatcher) release(ctx context.Context, dir string) {
	if ctx.Err() == nil {
		return
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.stopped {
		return
	}
	delete(pw.watchedDirs, dir)
	pw.running = false
}

// scan reports settled files not yet in seen. New or still changing files
// wait in pending until a later scan sees the same stamp. Names gone from
// the directory are forgotten, so a file that reappears is reported again.
// A read error keeps the previous state. Returns false once cancelled.
func (pw *PollWatcher) scan(ctx context.Context, dir string, seen map[string]struct{}, pending map[string]fileStamp) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		select {
		case pw.errors <- fmt.Errorf("scan %s: %w", dir, err):
		default:
			// error channel full, drop
		}
		return true
	}

	current := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		if _, ok := seen[name]; ok {
			current[name] = struct{}{}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		current[name] = struct{}{}

		stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
		if prev, ok := pending[name]; !ok || !prev.same(stamp) {
			pending[name] = stamp
			continue
		}

		event := outbound.FileChangeEvent{
			FilePath:  filepath.Join(dir, name),
			EventType: "create",
		}
		select {
		case pw.events <- event:
		case <-pw.ctx.Done():
			return false
		case <-ctx.Done():
			return false
		}

		delete(pending, name)
		seen[name] = struct{}{}
	}

	for name := range seen {
		if _, ok := current[name]; !ok {
			delete(seen, name)
		}
	}
	for name := range pending {
		if _, ok := current[name]; !ok {
			delete(pending, name)
		}
	}

	return true
}
