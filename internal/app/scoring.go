package app

import (
	"math"
	"time"

	"brainbolt-service/internal/domain"
)

const (
	minDifficulty = 1
	maxDifficulty = 10

	// Difficulty ramps up only after this many consecutive correct answers;
	// a single lucky guess never escalates.
	rampStreak = 2

	maxStreakMultiplier = 2.0
)

// DefaultDecayWindow is how long a streak survives inactivity.
const DefaultDecayWindow = 30 * time.Minute

// scoreAnswer applies one submission to a progress record. It is pure: the
// caller owns persisting the returned record.
func scoreAnswer(p domain.UserProgress, q domain.Question, selected string, now time.Time) (domain.UserProgress, bool, int) {
	correct := selected == q.CorrectAnswer
	p.TotalAttempts++

	delta := 0
	if correct {
		p.CorrectCount++
		p.Streak++

		accuracy := float64(p.CorrectCount) / float64(p.TotalAttempts)
		accuracyFactor := 0.5 + accuracy
		difficultyWeight := float64(q.Difficulty) * 10
		streakMultiplier := math.Min(1+float64(p.Streak)*0.1, maxStreakMultiplier)

		delta = int(math.Floor(difficultyWeight * streakMultiplier * accuracyFactor))
		p.TotalScore += delta
		if p.Streak > p.MaxStreak {
			p.MaxStreak = p.Streak
		}
		if p.Streak >= rampStreak && p.CurrentDifficulty < maxDifficulty {
			p.CurrentDifficulty++
		}
	} else {
		p.Streak = 0
		if p.CurrentDifficulty > minDifficulty {
			p.CurrentDifficulty--
		}
	}

	p.LastAnswerAt = now
	p.StateVersion++
	return p, correct, delta
}

// applyStreakDecay zeroes a streak that outlived the inactivity window. It
// deliberately leaves StateVersion, TotalScore and CurrentDifficulty alone:
// inactivity costs the streak, nothing else.
func applyStreakDecay(p domain.UserProgress, now time.Time, window time.Duration) (domain.UserProgress, bool) {
	if window <= 0 || p.Streak == 0 {
		return p, false
	}
	if now.Sub(p.LastAnswerAt) <= window {
		return p, false
	}
	p.Streak = 0
	return p, true
}
