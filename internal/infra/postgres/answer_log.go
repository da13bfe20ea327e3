package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"brainbolt-service/internal/domain"
)

// AnswerLog persists scored submissions so history survives restarts.
type AnswerLog struct {
	pool *pgxpool.Pool
}

func NewAnswerLog(pool *pgxpool.Pool) *AnswerLog {
	return &AnswerLog{pool: pool}
}

func (l *AnswerLog) Append(ctx context.Context, entry domain.AnswerLogEntry) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO answer_log (id, user_id, question_id, difficulty, correct, score_delta, streak_at_answer, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, entry.QuestionID, entry.Difficulty,
		entry.Correct, entry.ScoreDelta, entry.StreakAtAnswer, entry.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

// RecentByUser returns the user's most recent n entries in chronological
// order.
func (l *AnswerLog) RecentByUser(ctx context.Context, userID string, n int) ([]domain.AnswerLogEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, user_id, question_id, difficulty, correct, score_delta, streak_at_answer, answered_at
		 FROM answer_log WHERE user_id = $1 ORDER BY answered_at DESC, id DESC LIMIT $2`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent answers: %w", err)
	}
	defer rows.Close()

	var entries []domain.AnswerLogEntry
	for rows.Next() {
		var entry domain.AnswerLogEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.QuestionID, &entry.Difficulty,
			&entry.Correct, &entry.ScoreDelta, &entry.StreakAtAnswer, &entry.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent answers: %w", err)
	}

	// newest-first from the query; callers expect chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (l *AnswerLog) DifficultyHistogram(ctx context.Context, userID string) (map[int]int, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT difficulty, COUNT(*) FROM answer_log WHERE user_id = $1 GROUP BY difficulty`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("difficulty histogram: %w", err)
	}
	defer rows.Close()

	histogram := make(map[int]int)
	for rows.Next() {
		var difficulty, count int
		if err := rows.Scan(&difficulty, &count); err != nil {
			return nil, fmt.Errorf("scan histogram: %w", err)
		}
		histogram[difficulty] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("difficulty histogram: %w", err)
	}
	return histogram, nil
}
