package inbound

import (
	"context"

	"github.com/ajkula/GoAutoSync/domain/model"
)

// AutoSyncService is the control surface of the auto-sync engine
type AutoSyncService interface {
	// sets the upload gate and starts the watcher on first call.
	// Returns the gate value now in effect.
	StartWatch(ctx context.Context, enabled bool) (bool, error)

	// reports the current gate value
	IsEnabled() bool

	// reports whether the directory watcher is running
	IsWatching() bool

	// returns the watch target, empty until the watcher has started
	Target() model.WatchTarget
}

// FolderService checks and creates folders under the base directory
type FolderService interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) (string, error)
}

// SyncStatsService exposes pipeline counters and outcome notifications
type SyncStatsService interface {
	GetStats(ctx context.Context) model.SyncStats

	// registers fn for every recorded outcome; the returned func unregisters it
	Subscribe(fn func(model.UploadOutcome)) (unsubscribe func())
}
