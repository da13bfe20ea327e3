package memory

import (
	"context"
	"fmt"
	"strconv"

	"brainbolt-service/internal/domain"
)

// SeedLoader synthesizes the built-in arithmetic catalog: three questions per
// difficulty level 1..10, with the correct answer d+i and three distinct
// numeric distractors.
type SeedLoader struct{}

func NewSeedLoader() *SeedLoader {
	return &SeedLoader{}
}

func (l *SeedLoader) LoadCatalog(_ context.Context) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, 30)
	for d := 1; d <= 10; d++ {
		for i := 1; i <= 3; i++ {
			correct := d + i
			choices := distinctChoices(correct, []int{correct, correct + 1, correct - 1, d * i})
			// Deterministic IDs keep reseeding idempotent when the pool is
			// pushed to a durable backend.
			questions = append(questions, domain.Question{
				ID:            fmt.Sprintf("q-%d-%d", d, i),
				Difficulty:    d,
				Prompt:        fmt.Sprintf("What is %d + %d?", d, i),
				Choices:       choices,
				CorrectAnswer: strconv.Itoa(correct),
			})
		}
	}
	return questions, nil
}

// distinctChoices keeps the candidate order but drops duplicates, then tops
// up deterministically until exactly four unique choices exist.
func distinctChoices(correct int, candidates []int) []string {
	choices := make([]string, 0, 4)
	seen := make(map[string]bool, 4)
	add := func(v int) {
		s := strconv.Itoa(v)
		if !seen[s] {
			seen[s] = true
			choices = append(choices, s)
		}
	}
	for _, v := range candidates {
		add(v)
	}
	for offset := 2; len(choices) < 4; offset++ {
		add(correct + offset)
	}
	return choices
}
