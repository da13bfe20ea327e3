package app

import (
	"testing"
	"time"

	"brainbolt-service/internal/domain"
)

var scoringNow = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

func difficulty5Question() domain.Question {
	return domain.Question{
		ID:            "q-5-1",
		Difficulty:    5,
		Prompt:        "What is 5 + 1?",
		Choices:       []string{"6", "7", "5", "8"},
		CorrectAnswer: "6",
	}
}

func TestFirstCorrectAnswer(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow.Add(-time.Minute))

	p, correct, delta := scoreAnswer(p, difficulty5Question(), "6", scoringNow)
	if !correct {
		t.Fatalf("expected correct answer")
	}
	// weight 50 * multiplier 1.1 * accuracy factor 1.5 = 82.5, floored
	if delta != 82 {
		t.Fatalf("expected delta 82, got %d", delta)
	}
	if p.TotalScore != 82 || p.Streak != 1 || p.MaxStreak != 1 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p.CurrentDifficulty != 5 {
		t.Fatalf("difficulty must not ramp on a single correct answer, got %d", p.CurrentDifficulty)
	}
	if p.StateVersion != 1 || p.CorrectCount != 1 || p.TotalAttempts != 1 {
		t.Fatalf("unexpected counters: %+v", p)
	}
	if !p.LastAnswerAt.Equal(scoringNow) {
		t.Fatalf("expected lastAnswerAt updated")
	}
}

func TestSecondCorrectAnswerRampsDifficulty(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow)
	p, _, _ = scoreAnswer(p, difficulty5Question(), "6", scoringNow)

	p, correct, delta := scoreAnswer(p, difficulty5Question(), "6", scoringNow)
	if !correct {
		t.Fatalf("expected correct answer")
	}
	// weight 50 * multiplier 1.2 * accuracy factor 1.5 = 90
	if delta != 90 {
		t.Fatalf("expected delta 90, got %d", delta)
	}
	if p.TotalScore != 172 {
		t.Fatalf("expected total 172, got %d", p.TotalScore)
	}
	if p.CurrentDifficulty != 6 {
		t.Fatalf("expected difficulty ramp to 6, got %d", p.CurrentDifficulty)
	}
	if p.Streak != 2 || p.MaxStreak != 2 || p.StateVersion != 2 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestIncorrectAnswerResetsStreakAndDropsDifficulty(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow)
	p.Streak = 7
	p.MaxStreak = 7
	p.TotalScore = 500
	p.CorrectCount = 7
	p.TotalAttempts = 7
	p.StateVersion = 7

	p, correct, delta := scoreAnswer(p, difficulty5Question(), "7", scoringNow)
	if correct {
		t.Fatalf("expected incorrect answer")
	}
	if delta != 0 || p.TotalScore != 500 {
		t.Fatalf("score must never decrease, got delta=%d total=%d", delta, p.TotalScore)
	}
	if p.Streak != 0 {
		t.Fatalf("expected streak reset, got %d", p.Streak)
	}
	if p.MaxStreak != 7 {
		t.Fatalf("maxStreak must survive a miss, got %d", p.MaxStreak)
	}
	if p.CurrentDifficulty != 4 {
		t.Fatalf("expected difficulty drop to 4, got %d", p.CurrentDifficulty)
	}
	if p.StateVersion != 8 || p.TotalAttempts != 8 || p.CorrectCount != 7 {
		t.Fatalf("unexpected counters: %+v", p)
	}
}

func TestDifficultyClamps(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow)
	p.CurrentDifficulty = 1
	p, _, _ = scoreAnswer(p, difficulty5Question(), "wrong", scoringNow)
	if p.CurrentDifficulty != 1 {
		t.Fatalf("difficulty must clamp at 1, got %d", p.CurrentDifficulty)
	}

	p.CurrentDifficulty = 10
	p.Streak = 5
	p, _, _ = scoreAnswer(p, difficulty5Question(), "6", scoringNow)
	if p.CurrentDifficulty != 10 {
		t.Fatalf("difficulty must clamp at 10, got %d", p.CurrentDifficulty)
	}
}

func TestStreakMultiplierCaps(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow)
	p.Streak = 14
	p.MaxStreak = 14
	p.CorrectCount = 19
	p.TotalAttempts = 19

	q := domain.Question{ID: "q-10-1", Difficulty: 10, Choices: []string{"11", "12", "10", "13"}, CorrectAnswer: "11"}
	_, _, delta := scoreAnswer(p, q, "11", scoringNow)
	// weight 100, multiplier capped at 2.0, accuracy factor 1.5
	if delta != 300 {
		t.Fatalf("expected capped delta 300, got %d", delta)
	}
}

func TestStreakDecay(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow.Add(-31*time.Minute))
	p.Streak = 4
	p.MaxStreak = 4
	p.TotalScore = 300
	p.StateVersion = 9
	p.CurrentDifficulty = 8

	decayed, changed := applyStreakDecay(p, scoringNow, DefaultDecayWindow)
	if !changed {
		t.Fatalf("expected decay after 31 minutes")
	}
	if decayed.Streak != 0 {
		t.Fatalf("expected streak reset, got %d", decayed.Streak)
	}
	if decayed.StateVersion != 9 || decayed.TotalScore != 300 || decayed.CurrentDifficulty != 8 {
		t.Fatalf("decay must only touch the streak: %+v", decayed)
	}
	if decayed.MaxStreak != 4 {
		t.Fatalf("decay must not touch maxStreak, got %d", decayed.MaxStreak)
	}
}

func TestStreakDecayWithinWindow(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow.Add(-29*time.Minute))
	p.Streak = 4

	if _, changed := applyStreakDecay(p, scoringNow, DefaultDecayWindow); changed {
		t.Fatalf("no decay expected inside the window")
	}
}

func TestStreakDecayNoopOnZeroStreak(t *testing.T) {
	p := domain.NewUserProgress("u1", scoringNow.Add(-2*time.Hour))

	if _, changed := applyStreakDecay(p, scoringNow, DefaultDecayWindow); changed {
		t.Fatalf("no decay expected for a zero streak")
	}
}
