package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"brainbolt-service/internal/domain"
)

// CatalogLoader reads the question pool from Postgres JSONB rows.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var question domain.Question
		if err := json.Unmarshal(raw, &question); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return questions, nil
}

// SeedCatalog upserts the question pool. Question IDs are deterministic, so
// reseeding on every boot is safe.
func SeedCatalog(ctx context.Context, pool *pgxpool.Pool, questions []domain.Question) error {
	for _, question := range questions {
		data, err := json.Marshal(question)
		if err != nil {
			return fmt.Errorf("marshal question %s: %w", question.ID, err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO questions (id, data) VALUES ($1, $2::jsonb)
			 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
			question.ID, string(data),
		)
		if err != nil {
			return fmt.Errorf("seed question %s: %w", question.ID, err)
		}
	}
	return nil
}
