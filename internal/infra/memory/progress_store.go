package memory

import (
	"sync"
	"time"

	"brainbolt-service/internal/domain"
)

// ProgressStore is the in-memory implementation of app.ProgressStore. Records
// are never deleted; insertion order is preserved for stable rank tie-breaks.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.UserProgress
	order   []string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[string]domain.UserProgress),
	}
}

// GetOrCreate returns the stored record, lazily creating the default progress
// on first access.
func (s *ProgressStore) GetOrCreate(userID string, now time.Time) domain.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress, ok := s.records[userID]; ok {
		return progress
	}
	progress := domain.NewUserProgress(userID, now)
	s.records[userID] = progress
	s.order = append(s.order, userID)
	return progress
}

// Put replaces the stored record for progress.UserID.
func (s *ProgressStore) Put(progress domain.UserProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[progress.UserID]; !ok {
		s.order = append(s.order, progress.UserID)
	}
	s.records[progress.UserID] = progress
}

// Snapshot returns all records in insertion order.
func (s *ProgressStore) Snapshot() []domain.UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]domain.UserProgress, 0, len(s.order))
	for _, userID := range s.order {
		snapshot = append(snapshot, s.records[userID])
	}
	return snapshot
}
