package model

import (
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Identity is the user the watcher runs on behalf of
type Identity struct {
	Name    string
	HomeDir string
}

// WatchTarget is the absolute local directory under observation
type WatchTarget struct {
	Path string `json:"path"`
}

// FileEvent is one detected file creation
type FileEvent struct {
	ID           string    `json:"id"`
	AbsolutePath string    `json:"absolutePath"`
	BaseName     string    `json:"baseName"`
	DetectedAt   time.Time `json:"detectedAt"`
}

// NewFileEvent builds a FileEvent for the given path, stamped now
func NewFileEvent(absPath string) FileEvent {
	return FileEvent{
		ID:           uuid.NewString(),
		AbsolutePath: absPath,
		BaseName:     filepath.Base(absPath),
		DetectedAt:   time.Now(),
	}
}

// UploadTask pairs a local file with its destination object key
type UploadTask struct {
	SourcePath     string `json:"sourcePath"`
	DestinationKey string `json:"destinationKey"`
}

// DestinationKey returns "<prefix>/<baseName>". Same-named files map to the same key.
func DestinationKey(prefix, baseName string) string {
	if prefix == "" {
		return baseName
	}
	return path.Join(prefix, baseName)
}

type UploadStatus string

const (
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusFailed   UploadStatus = "failed"
	UploadStatusFiltered UploadStatus = "filtered"
	UploadStatusSkipped  UploadStatus = "skipped"
)

// UploadOutcome records what happened to a single FileEvent
type UploadOutcome struct {
	EventID        string       `json:"eventId"`
	SourcePath     string       `json:"sourcePath"`
	DestinationKey string       `json:"destinationKey,omitempty"`
	Status         UploadStatus `json:"status"`
	Error          string       `json:"error,omitempty"`
	Bytes          int64        `json:"bytes,omitempty"`
	StartedAt      time.Time    `json:"startedAt"`
	FinishedAt     time.Time    `json:"finishedAt"`
}

// SyncStats is a snapshot of pipeline counters
type SyncStats struct {
	Detected       int             `json:"detected"`
	Uploaded       int             `json:"uploaded"`
	Failed         int             `json:"failed"`
	Filtered       int             `json:"filtered"`
	Skipped        int             `json:"skipped"`
	BytesUploaded  int64           `json:"bytesUploaded"`
	RecentOutcomes []UploadOutcome `json:"recentOutcomes"`
}
