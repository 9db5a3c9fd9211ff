package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

type mockLogger struct {
	t *testing.T
}

func (m *mockLogger) Error(msg string, args ...any) { m.logf("ERROR", msg, args) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.logf("WARN", msg, args) }
func (m *mockLogger) Info(msg string, args ...any)  { m.logf("INFO", msg, args) }
func (m *mockLogger) Debug(msg string, args ...any) { m.logf("DEBUG", msg, args) }

func (m *mockLogger) logf(level, msg string, args []any) {
	if m.t != nil {
		m.t.Logf("%s: %s %v", level, msg, args)
	}
}

// fakeStore records every transfer and fails for names listed in failOn
type fakeStore struct {
	mu     sync.Mutex
	calls  []model.UploadTask
	failOn map[string]bool
}

func newFakeStore(failOn ...string) *fakeStore {
	f := &fakeStore{failOn: make(map[string]bool)}
	for _, name := range failOn {
		f.failOn[name] = true
	}
	return f
}

func (f *fakeStore) Upload(ctx context.Context, task model.UploadTask) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, task)
	if f.failOn[task.DestinationKey] {
		return 0, errors.New("network unreachable")
	}
	return 42, nil
}

func (f *fakeStore) Calls() []model.UploadTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.UploadTask, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeStore) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeWatcher lets tests push events by hand and counts Watch calls
type fakeWatcher struct {
	mu         sync.Mutex
	events     chan outbound.FileChangeEvent
	errors     chan error
	watchCalls int
	watchErr   error
	paths      []string
	stopped    bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan outbound.FileChangeEvent, 100),
		errors: make(chan error, 10),
	}
}

func (w *fakeWatcher) Watch(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchCalls++
	if w.watchErr != nil {
		return w.watchErr
	}
	w.paths = append(w.paths, path)
	return nil
}

func (w *fakeWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.events)
	close(w.errors)
	return nil
}

func (w *fakeWatcher) Events() <-chan outbound.FileChangeEvent { return w.events }
func (w *fakeWatcher) Errors() <-chan error                     { return w.errors }

func (w *fakeWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths) > 0 && !w.stopped
}

func (w *fakeWatcher) GetWatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.paths...)
}

func (w *fakeWatcher) WatchCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watchCalls
}

func (w *fakeWatcher) emit(path string) {
	w.events <- outbound.FileChangeEvent{FilePath: path, EventType: "create"}
}

type fakeIdentity struct {
	id  model.Identity
	err error
}

func (f fakeIdentity) Current() (model.Identity, error) {
	return f.id, f.err
}

// fakeInspector serves Stat from a fixed table
type fakeInspector struct {
	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string]bool
	statErr error
	mkErr   error
	created []string
}

func newFakeInspector(dirs ...string) *fakeInspector {
	f := &fakeInspector{dirs: make(map[string]bool), files: make(map[string]bool)}
	for _, d := range dirs {
		f.dirs[d] = true
	}
	return f
}

func (f *fakeInspector) Stat(path string) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statErr != nil {
		return false, false, f.statErr
	}
	if f.dirs[path] {
		return true, true, nil
	}
	if f.files[path] {
		return true, false, nil
	}
	return false, false, nil
}

func (f *fakeInspector) MkdirAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mkErr != nil {
		return f.mkErr
	}
	f.dirs[path] = true
	f.created = append(f.created, path)
	return nil
}

func fileEvent(dir, name string) model.FileEvent {
	return model.NewFileEvent(fmt.Sprintf("%s/%s", dir, name))
}
