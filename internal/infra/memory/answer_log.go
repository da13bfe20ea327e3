package memory

import (
	"context"
	"sync"

	"brainbolt-service/internal/domain"
)

// AnswerLog is the in-memory append-only submission record.
type AnswerLog struct {
	mu      sync.RWMutex
	entries []domain.AnswerLogEntry
}

func NewAnswerLog() *AnswerLog {
	return &AnswerLog{}
}

func (l *AnswerLog) Append(_ context.Context, entry domain.AnswerLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// RecentByUser returns the user's most recent n entries in chronological
// order.
func (l *AnswerLog) RecentByUser(_ context.Context, userID string, n int) ([]domain.AnswerLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var mine []domain.AnswerLogEntry
	for _, entry := range l.entries {
		if entry.UserID == userID {
			mine = append(mine, entry)
		}
	}
	if len(mine) > n {
		mine = mine[len(mine)-n:]
	}
	return mine, nil
}

// DifficultyHistogram counts the user's logged answers per difficulty level.
func (l *AnswerLog) DifficultyHistogram(_ context.Context, userID string) (map[int]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	histogram := make(map[int]int)
	for _, entry := range l.entries {
		if entry.UserID == userID {
			histogram[entry.Difficulty]++
		}
	}
	return histogram, nil
}
