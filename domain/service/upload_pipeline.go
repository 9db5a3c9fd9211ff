package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ajkula/GoAutoSync/domain/model"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
)

// outcome sink, satisfied by SyncStatsService
type outcomeRecorder interface {
	RecordDetected()
	RecordOutcome(outcome model.UploadOutcome)
}

// UploadPipeline decides, per detected file, whether to upload it and
// performs the single transfer attempt
type UploadPipeline struct {
	gate     *UploadGate
	filter   FileFilter
	store    outbound.ObjectStore
	recorder outcomeRecorder
	logger   outbound.Logger
	prefix   string
	limiter  *semaphore.Weighted
}

// NewUploadPipeline builds a pipeline. maxConcurrent <= 0 leaves transfers unbounded.
func NewUploadPipeline(
	gate *UploadGate,
	filter FileFilter,
	store outbound.ObjectStore,
	recorder outcomeRecorder,
	logger outbound.Logger,
	prefix string,
	maxConcurrent int,
) *UploadPipeline {
	p := &UploadPipeline{
		gate:     gate,
		filter:   filter,
		store:    store,
		recorder: recorder,
		logger:   logger,
		prefix:   prefix,
	}
	if maxConcurrent > 0 {
		p.limiter = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return p
}

// Handle processes one FileEvent. It never panics on transfer errors and
// never retries.
func (p *UploadPipeline) Handle(ctx context.Context, event model.FileEvent) {
	started := time.Now()
	p.recorder.RecordDetected()

	outcome := model.UploadOutcome{
		EventID:    event.ID,
		SourcePath: event.AbsolutePath,
		StartedAt:  started,
	}

	if !p.filter.Accepts(event.BaseName) {
		p.logger.Debug("File is not a valid upload candidate", "file", event.BaseName)
		p.finish(outcome, model.UploadStatusFiltered)
		return
	}

	// gate is read once, at evaluation time
	if !p.gate.IsEnabled() {
		p.logger.Debug("Auto backup disabled, dropping file event", "file", event.BaseName)
		p.finish(outcome, model.UploadStatusSkipped)
		return
	}

	task := model.UploadTask{
		SourcePath:     event.AbsolutePath,
		DestinationKey: model.DestinationKey(p.prefix, event.BaseName),
	}
	outcome.DestinationKey = task.DestinationKey

	if p.limiter != nil {
		if err := p.limiter.Acquire(ctx, 1); err != nil {
			outcome.Error = fmt.Errorf("%w: %v", model.ErrTransferFailure, err).Error()
			p.logger.Error("Upload aborted before transfer", "file", event.BaseName, "error", err)
			p.finish(outcome, model.UploadStatusFailed)
			return
		}
		defer p.limiter.Release(1)
	}

	p.logger.Info("Initialize uploading", "file", event.BaseName, "key", task.DestinationKey, "event_id", event.ID)

	n, err := p.store.Upload(ctx, task)
	if err != nil {
		transferErr := fmt.Errorf("%w: %s: %v", model.ErrTransferFailure, event.BaseName, err)
		outcome.Error = transferErr.Error()
		p.logger.Error("Error uploading file", "file", event.BaseName, "key", task.DestinationKey, "error", transferErr)
		p.finish(outcome, model.UploadStatusFailed)
		return
	}

	outcome.Bytes = n
	p.logger.Info("Uploaded file", "file", event.BaseName, "key", task.DestinationKey, "bytes", n,
		"duration", time.Since(started).String())
	p.finish(outcome, model.UploadStatusUploaded)
}

func (p *UploadPipeline) finish(outcome model.UploadOutcome, status model.UploadStatus) {
	outcome.Status = status
	outcome.FinishedAt = time.Now()
	p.recorder.RecordOutcome(outcome)
}
