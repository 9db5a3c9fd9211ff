package outbound

import (
	"context"
)

// represents a file appearing in a watched directory
type FileChangeEvent struct {
	FilePath  string `json:"filePath"`  // Absolute path to the new file
	EventType string `json:"eventType"` // Always "create" for now
}

// defines operations for monitoring a directory for new files
type FileWatcher interface {
	// starts monitoring a directory; files already present are reported too
	Watch(ctx context.Context, path string) error

	// stops watching and releases resources
	Stop() error

	// returns a channel for receiving file creation events
	Events() <-chan FileChangeEvent

	// returns a channel for receiving watcher errors
	Errors() <-chan error

	// returns true if the watcher is currently monitoring a directory
	IsWatching() bool

	// returns a list of currently watched directories
	GetWatchedPaths() []string
}
