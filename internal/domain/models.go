package domain

import "time"

// Question is an immutable catalog entry. Choices always contains exactly four
// distinct strings, one of which equals CorrectAnswer.
type Question struct {
	ID            string   `json:"id"`
	Difficulty    int      `json:"difficulty"` // 1..10
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// UserProgress is the per-user adaptive state. It is mutated only by answer
// submission and streak decay.
type UserProgress struct {
	UserID            string    `json:"userId"`
	CurrentDifficulty int       `json:"currentDifficulty"` // clamped to 1..10
	Streak            int       `json:"streak"`
	MaxStreak         int       `json:"maxStreak"`
	TotalScore        int       `json:"totalScore"`
	CorrectCount      int       `json:"correctCount"`
	TotalAttempts     int       `json:"totalAttempts"`
	StateVersion      int64     `json:"stateVersion"`
	LastAnswerAt      time.Time `json:"lastAnswerAt"`
}

// NewUserProgress returns the default progress for a first-time user.
func NewUserProgress(userID string, now time.Time) UserProgress {
	return UserProgress{
		UserID:            userID,
		CurrentDifficulty: 5,
		LastAnswerAt:      now,
	}
}

// AnswerLogEntry records one scored submission. Append-only, never mutated.
type AnswerLogEntry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	QuestionID     string    `json:"questionId"`
	Difficulty     int       `json:"difficulty"`
	Correct        bool      `json:"correct"`
	ScoreDelta     int       `json:"scoreDelta"`
	StreakAtAnswer int       `json:"streakAtAnswer"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// Submission models an answer submission from a client. StateVersion is the
// version the caller last observed; nil means the caller opted out of the
// version check. IdempotencyKey is optional; empty means no dedup protection.
type Submission struct {
	UserID         string
	QuestionID     string
	SelectedAnswer string
	StateVersion   *int64
	IdempotencyKey string
}

// SubmitResult summarizes an applied submission for the caller.
type SubmitResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	NewDifficulty int    `json:"newDifficulty"`
	NewStreak     int    `json:"newStreak"`
	ScoreDelta    int    `json:"scoreDelta"`
	TotalScore    int    `json:"totalScore"`
	StateVersion  int64  `json:"stateVersion"`
	ScoreRank     int    `json:"leaderboardRankScore"`
	StreakRank    int    `json:"leaderboardRankStreak"`
}

// NextQuestion is the payload for a question fetch. SessionID echoes the
// caller-supplied user id, or carries a freshly minted one.
type NextQuestion struct {
	QuestionID    string   `json:"questionId"`
	Difficulty    int      `json:"difficulty"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	SessionID     string   `json:"sessionId"`
	StateVersion  int64    `json:"stateVersion"`
	CurrentScore  int      `json:"currentScore"`
	CurrentStreak int      `json:"currentStreak"`
}

// LeaderboardEntry is a snapshot-friendly view of a user's standing.
type LeaderboardEntry struct {
	UserID     string `json:"userId"`
	TotalScore int    `json:"totalScore"`
	MaxStreak  int    `json:"maxStreak"`
}

// Leaderboard captures an ordered top-N board at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Metrics is the per-user summary derived from progress and the answer log.
// Accuracy is a fraction in [0,1]; RecentPerformance is the percentage of
// correct answers among the most recent five logged answers.
type Metrics struct {
	CurrentDifficulty   int         `json:"currentDifficulty"`
	Streak              int         `json:"streak"`
	MaxStreak           int         `json:"maxStreak"`
	TotalScore          int         `json:"totalScore"`
	Accuracy            float64     `json:"accuracy"`
	DifficultyHistogram map[int]int `json:"difficultyHistogram"`
	RecentPerformance   float64     `json:"recentPerformance"`
}
