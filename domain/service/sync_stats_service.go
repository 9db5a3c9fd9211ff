package service

import (
	"context"
	"sync"

	"github.com/ajkula/GoAutoSync/domain/model"
)

const defaultRecentOutcomes = 50

// SyncStatsService keeps pipeline counters and fans outcomes out to subscribers
type SyncStatsService struct {
	mu          sync.RWMutex
	stats       model.SyncStats
	recent      []model.UploadOutcome
	maxRecent   int
	subscribers map[int]func(model.UploadOutcome)
	nextID      int
}

func NewSyncStatsService() *SyncStatsService {
	return &SyncStatsService{
		recent:      make([]model.UploadOutcome, 0, defaultRecentOutcomes),
		maxRecent:   defaultRecentOutcomes,
		subscribers: make(map[int]func(model.UploadOutcome)),
	}
}

// counts an event seen by the pipeline, before any filtering
func (s *SyncStatsService) RecordDetected() {
	s.mu.Lock()
	s.stats.Detected++
	s.mu.Unlock()
}

// RecordOutcome updates counters and notifies subscribers outside the lock
func (s *SyncStatsService) RecordOutcome(outcome model.UploadOutcome) {
	s.mu.Lock()
	switch outcome.Status {
	case model.UploadStatusUploaded:
		s.stats.Uploaded++
		s.stats.BytesUploaded += outcome.Bytes
	case model.UploadStatusFailed:
		s.stats.Failed++
	case model.UploadStatusFiltered:
		s.stats.Filtered++
	case model.UploadStatusSkipped:
		s.stats.Skipped++
	}

	if len(s.recent) >= s.maxRecent {
		copy(s.recent, s.recent[1:])
		s.recent = s.recent[:len(s.recent)-1]
	}
	s.recent = append(s.recent, outcome)

	subs := make([]func(model.UploadOutcome), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(outcome)
	}
}

func (s *SyncStatsService) GetStats(ctx context.Context) model.SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.stats
	snapshot.RecentOutcomes = make([]model.UploadOutcome, len(s.recent))
	copy(snapshot.RecentOutcomes, s.recent)
	return snapshot
}

func (s *SyncStatsService) Subscribe(fn func(model.UploadOutcome)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}
