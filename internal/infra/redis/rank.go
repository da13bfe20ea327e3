package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"brainbolt-service/internal/domain"
)

const (
	scoreBoardKey  = "leaderboard:score"
	streakBoardKey = "leaderboard:streak"
)

// RankComputer keeps two sorted sets current so leaderboards and ranks come
// straight from Redis instead of a full-store sort.
type RankComputer struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRankComputer(client *redis.Client) *RankComputer {
	return &RankComputer{client: client, clock: time.Now}
}

// Record upserts the user's standing in both boards.
func (r *RankComputer) Record(ctx context.Context, progress domain.UserProgress) error {
	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, scoreBoardKey, redis.Z{Member: progress.UserID, Score: float64(progress.TotalScore)})
	pipe.ZAdd(ctx, streakBoardKey, redis.Z{Member: progress.UserID, Score: float64(progress.MaxStreak)})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rank: %w", err)
	}
	return nil
}

func (r *RankComputer) TopByScore(ctx context.Context, n int) (domain.Leaderboard, error) {
	return r.top(ctx, scoreBoardKey, streakBoardKey, n)
}

func (r *RankComputer) TopByStreak(ctx context.Context, n int) (domain.Leaderboard, error) {
	return r.top(ctx, streakBoardKey, scoreBoardKey, n)
}

func (r *RankComputer) top(ctx context.Context, primary, secondary string, n int) (domain.Leaderboard, error) {
	members, err := r.client.ZRevRangeWithScores(ctx, primary, 0, int64(n-1)).Result()
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("read board %s: %w", primary, err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, member := range members {
		userID, _ := member.Member.(string)
		other, err := r.client.ZScore(ctx, secondary, userID).Result()
		if err != nil && err != redis.Nil {
			return domain.Leaderboard{}, fmt.Errorf("read board %s: %w", secondary, err)
		}

		entry := domain.LeaderboardEntry{UserID: userID}
		if primary == scoreBoardKey {
			entry.TotalScore = int(member.Score)
			entry.MaxStreak = int(other)
		} else {
			entry.MaxStreak = int(member.Score)
			entry.TotalScore = int(other)
		}
		entries = append(entries, entry)
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: r.clock()}, nil
}

// RankOf returns 1-based board positions, or zero if the user has no recorded
// answers yet.
func (r *RankComputer) RankOf(ctx context.Context, userID string) (int, int, error) {
	scoreRank, err := r.rank(ctx, scoreBoardKey, userID)
	if err != nil {
		return 0, 0, err
	}
	streakRank, err := r.rank(ctx, streakBoardKey, userID)
	if err != nil {
		return 0, 0, err
	}
	return scoreRank, streakRank, nil
}

func (r *RankComputer) rank(ctx context.Context, board, userID string) (int, error) {
	pos, err := r.client.ZRevRank(ctx, board, userID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rank on %s: %w", board, err)
	}
	return int(pos) + 1, nil
}
