package memory

import (
	"context"
	"sort"
	"time"

	"brainbolt-service/internal/domain"
)

// Snapshotter supplies the progress records to rank, in insertion order.
type Snapshotter interface {
	Snapshot() []domain.UserProgress
}

// RankComputer derives leaderboards by sorting a full store snapshot on every
// call. Fine at this scale; an index-backed implementation (Redis ZSets)
// covers larger populations.
type RankComputer struct {
	source Snapshotter
	clock  func() time.Time
}

func NewRankComputer(source Snapshotter) *RankComputer {
	return &RankComputer{source: source, clock: time.Now}
}

// Record is a no-op: ranks are derived from the store on read.
func (r *RankComputer) Record(_ context.Context, _ domain.UserProgress) error {
	return nil
}

func (r *RankComputer) TopByScore(_ context.Context, n int) (domain.Leaderboard, error) {
	sorted := r.sortedByScore()
	return r.board(sorted, n), nil
}

func (r *RankComputer) TopByStreak(_ context.Context, n int) (domain.Leaderboard, error) {
	sorted := r.sortedByStreak()
	return r.board(sorted, n), nil
}

// RankOf returns 1-based positions in the full descending sorts, or zero for
// an unknown user.
func (r *RankComputer) RankOf(_ context.Context, userID string) (int, int, error) {
	scoreRank := position(r.sortedByScore(), userID)
	streakRank := position(r.sortedByStreak(), userID)
	return scoreRank, streakRank, nil
}

func (r *RankComputer) sortedByScore() []domain.UserProgress {
	sorted := r.source.Snapshot()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalScore > sorted[j].TotalScore
	})
	return sorted
}

func (r *RankComputer) sortedByStreak() []domain.UserProgress {
	sorted := r.source.Snapshot()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MaxStreak > sorted[j].MaxStreak
	})
	return sorted
}

func (r *RankComputer) board(sorted []domain.UserProgress, n int) domain.Leaderboard {
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for _, p := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:     p.UserID,
			TotalScore: p.TotalScore,
			MaxStreak:  p.MaxStreak,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: r.clock()}
}

func position(sorted []domain.UserProgress, userID string) int {
	for i, p := range sorted {
		if p.UserID == userID {
			return i + 1
		}
	}
	return 0
}
