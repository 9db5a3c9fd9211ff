package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

type autoSyncService struct {
	watcher   outbound.FileWatcher
	resolver  *WatchTargetResolver
	inspector outbound.FolderInspector
	pipeline  *UploadPipeline
	gate      *UploadGate
	logger    outbound.Logger

	mu       sync.RWMutex
	watching bool
	target   model.WatchTarget
	inflight sync.WaitGroup
	loopDone chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

func NewAutoSyncService(
	watcher outbound.FileWatcher,
	resolver *WatchTargetResolver,
	inspector outbound.FolderInspector,
	pipeline *UploadPipeline,
	gate *UploadGate,
	logger outbound.Logger,
	rootCtx context.Context,
) *autoSyncService {
	ctx, cancel := context.WithCancel(rootCtx)

	return &autoSyncService{
		watcher:   watcher,
		resolver:  resolver,
		inspector: inspector,
		pipeline:  pipeline,
		gate:      gate,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// StartWatch applies the gate value, then starts the watcher if it is not
// running yet. Later calls only flip the gate.
func (s *autoSyncService) StartWatch(ctx context.Context, enabled bool) (bool, error) {
	s.gate.SetEnabled(enabled)
	if enabled {
		s.logger.Info("Auto backup started...")
	} else {
		s.logger.Info("Auto backup stopped...")
	}

	if err := s.ensureWatching(ctx); err != nil {
		return s.gate.IsEnabled(), err
	}

	return s.gate.IsEnabled(), nil
}

func (s *autoSyncService) IsEnabled() bool {
	return s.gate.IsEnabled()
}

// returns true once the directory watcher has been started
func (s *autoSyncService) IsWatching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watching && s.watcher.IsWatching()
}

func (s *autoSyncService) Target() model.WatchTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// starts the watcher exactly once; a failed start may be retried by the next call
func (s *autoSyncService) ensureWatching(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watching {
		s.logger.Debug("Directory watcher already running", "path", s.target.Path)
		return nil
	}

	// a caller that gave up does not start the watcher
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("starting directory watcher: %w", err)
	}

	target, err := s.resolver.Resolve()
	if err != nil {
		s.logger.Error("Failed to resolve watch target", "error", err)
		return err
	}

	exists, isDir, err := s.inspector.Stat(target.Path)
	if err != nil {
		s.logger.Error("Failed to check watch target", "path", target.Path, "error", err)
		return fmt.Errorf("checking watch target %s: %w", target.Path, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", model.ErrWatchTargetMissing, target.Path)
	}
	if !isDir {
		return fmt.Errorf("%w: %s", model.ErrWatchTargetNotDir, target.Path)
	}

	s.logger.Info("Starting directory watcher", "path", target.Path)

	if err := s.watcher.Watch(s.ctx, target.Path); err != nil {
		s.logger.Error("Failed to watch directory", "path", target.Path, "error", err)
		return err
	}

	s.loopDone = make(chan struct{})
	go s.processEvents(s.loopDone)

	s.watching = true
	s.target = target
	s.logger.Info("Directory watcher started", "path", target.Path)
	return nil
}

// dispatches every detected file to its own pipeline goroutine
func (s *autoSyncService) processEvents(done chan struct{}) {
	defer close(done)
	s.logger.Info("Starting file event processing loop")

	events := s.watcher.Events()
	errs := s.watcher.Errors()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("File event processing stopped")
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			fileEvent := model.NewFileEvent(event.FilePath)
			s.logger.Debug("Received file event", "path", event.FilePath, "type", event.EventType, "event_id", fileEvent.ID)

			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.pipeline.Handle(s.ctx, fileEvent)
			}()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Error("File watcher error", "error", err)
		}
	}
}

// stops the watcher and waits for dispatched uploads to return
func (s *autoSyncService) Cleanup() {
	s.logger.Info("Cleaning up auto sync service")
	s.cancel()

	if err := s.watcher.Stop(); err != nil {
		s.logger.Error("Error stopping directory watcher", "error", err)
	}

	s.mu.RLock()
	done := s.loopDone
	s.mu.RUnlock()
	if done != nil {
		<-done
	}

	s.inflight.Wait()
}
