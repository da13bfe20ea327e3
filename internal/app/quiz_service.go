package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"brainbolt-service/internal/domain"
)

// LeaderboardSize is how many entries the top boards carry.
const LeaderboardSize = 10

// ProgressStore holds one mutable progress record per user. Snapshot returns
// records in insertion order so rank tie-breaks stay stable.
type ProgressStore interface {
	GetOrCreate(userID string, now time.Time) domain.UserProgress
	Put(progress domain.UserProgress)
	Snapshot() []domain.UserProgress
}

// IdempotencyLedger tracks consumed submission keys. TryConsume reports true
// exactly once per key.
type IdempotencyLedger interface {
	TryConsume(ctx context.Context, key string) (bool, error)
}

// AnswerLog is the append-only record of scored submissions.
type AnswerLog interface {
	Append(ctx context.Context, entry domain.AnswerLogEntry) error
	RecentByUser(ctx context.Context, userID string, n int) ([]domain.AnswerLogEntry, error)
	DifficultyHistogram(ctx context.Context, userID string) (map[int]int, error)
}

// QuestionCatalog serves the fixed question pool.
type QuestionCatalog interface {
	QuestionByDifficulty(ctx context.Context, difficulty int) (domain.Question, error)
	QuestionByID(ctx context.Context, id string) (domain.Question, error)
}

// RankComputer derives leaderboards and 1-based ranks. Record is invoked after
// every applied answer so index-backed implementations (Redis ZSets) stay
// current; derive-on-read implementations may ignore it.
type RankComputer interface {
	Record(ctx context.Context, progress domain.UserProgress) error
	TopByScore(ctx context.Context, n int) (domain.Leaderboard, error)
	TopByStreak(ctx context.Context, n int) (domain.Leaderboard, error)
	RankOf(ctx context.Context, userID string) (scoreRank, streakRank int, err error)
}

// QuizService contains the adaptive quiz use cases.
type QuizService struct {
	catalog QuestionCatalog
	store   ProgressStore
	ledger  IdempotencyLedger
	answers AnswerLog
	ranks   RankComputer

	decayWindow time.Duration
	now         func() time.Time
	newID       func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	subMu       sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewQuizService(catalog QuestionCatalog, store ProgressStore, ledger IdempotencyLedger, answers AnswerLog, ranks RankComputer, decayWindow time.Duration) *QuizService {
	return NewQuizServiceWithClock(catalog, store, ledger, answers, ranks, decayWindow, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(catalog QuestionCatalog, store ProgressStore, ledger IdempotencyLedger, answers AnswerLog, ranks RankComputer, decayWindow time.Duration, now func() time.Time) *QuizService {
	if decayWindow == 0 {
		decayWindow = DefaultDecayWindow
	}
	return &QuizService{
		catalog:     catalog,
		store:       store,
		ledger:      ledger,
		answers:     answers,
		ranks:       ranks,
		decayWindow: decayWindow,
		now:         now,
		newID:       uuid.NewString,
		locks:       make(map[string]*sync.Mutex),
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// userLock returns the mutex serializing read-modify-write cycles for one
// user. Two concurrent submissions for the same user must not interleave.
func (s *QuizService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// NextQuestion returns a question at the user's current difficulty. An empty
// userID mints a fresh session identifier, echoed back in the response.
func (s *QuizService) NextQuestion(ctx context.Context, userID string) (domain.NextQuestion, error) {
	if userID == "" {
		userID = s.newID()
	}

	lock := s.userLock(userID)
	lock.Lock()
	progress := s.store.GetOrCreate(userID, s.now())
	lock.Unlock()

	question, err := s.catalog.QuestionByDifficulty(ctx, progress.CurrentDifficulty)
	if err != nil {
		return domain.NextQuestion{}, fmt.Errorf("pick question: %w", err)
	}

	return domain.NextQuestion{
		QuestionID:    question.ID,
		Difficulty:    question.Difficulty,
		Prompt:        question.Prompt,
		Choices:       question.Choices,
		SessionID:     userID,
		StateVersion:  progress.StateVersion,
		CurrentScore:  progress.TotalScore,
		CurrentStreak: progress.Streak,
	}, nil
}

// SubmitAnswer runs the full submission pipeline: idempotency check, version
// check, streak decay, scoring, persistence, answer logging and ranking.
func (s *QuizService) SubmitAnswer(ctx context.Context, sub domain.Submission) (domain.SubmitResult, error) {
	if sub.UserID == "" || sub.QuestionID == "" {
		return domain.SubmitResult{}, domain.ErrMissingFields
	}

	if sub.IdempotencyKey != "" {
		ok, err := s.ledger.TryConsume(ctx, sub.IdempotencyKey)
		if err != nil {
			return domain.SubmitResult{}, fmt.Errorf("idempotency check: %w", err)
		}
		if !ok {
			return domain.SubmitResult{}, domain.ErrDuplicateSubmission
		}
	}

	lock := s.userLock(sub.UserID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	progress := s.store.GetOrCreate(sub.UserID, now)

	if sub.StateVersion != nil && *sub.StateVersion != progress.StateVersion {
		return domain.SubmitResult{}, domain.ErrVersionMismatch
	}

	if decayed, changed := applyStreakDecay(progress, now, s.decayWindow); changed {
		progress = decayed
		s.store.Put(progress)
	}

	question, err := s.catalog.QuestionByID(ctx, sub.QuestionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	progress, correct, delta := scoreAnswer(progress, question, sub.SelectedAnswer, now)
	s.store.Put(progress)

	entry := domain.AnswerLogEntry{
		ID:             s.newID(),
		UserID:         sub.UserID,
		QuestionID:     question.ID,
		Difficulty:     question.Difficulty,
		Correct:        correct,
		ScoreDelta:     delta,
		StreakAtAnswer: progress.Streak,
		AnsweredAt:     now,
	}
	// The state transition is already committed; log and rank updates are
	// best-effort from here.
	if err := s.answers.Append(ctx, entry); err != nil {
		log.Printf("append answer log: %v", err)
	}
	if err := s.ranks.Record(ctx, progress); err != nil {
		log.Printf("record rank: %v", err)
	}

	scoreRank, streakRank, err := s.ranks.RankOf(ctx, sub.UserID)
	if err != nil {
		log.Printf("rank lookup: %v", err)
	}

	s.broadcastLeaderboard(ctx)

	return domain.SubmitResult{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		NewDifficulty: progress.CurrentDifficulty,
		NewStreak:     progress.Streak,
		ScoreDelta:    delta,
		TotalScore:    progress.TotalScore,
		StateVersion:  progress.StateVersion,
		ScoreRank:     scoreRank,
		StreakRank:    streakRank,
	}, nil
}

// Metrics assembles the per-user summary from progress and the answer log.
func (s *QuizService) Metrics(ctx context.Context, userID string) (domain.Metrics, error) {
	if userID == "" {
		return domain.Metrics{}, domain.ErrMissingFields
	}

	lock := s.userLock(userID)
	lock.Lock()
	progress := s.store.GetOrCreate(userID, s.now())
	lock.Unlock()

	histogram, err := s.answers.DifficultyHistogram(ctx, userID)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("difficulty histogram: %w", err)
	}
	recent, err := s.answers.RecentByUser(ctx, userID, 5)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("recent answers: %w", err)
	}

	accuracy := 0.0
	if progress.TotalAttempts > 0 {
		accuracy = float64(progress.CorrectCount) / float64(progress.TotalAttempts)
	}

	recentPerformance := 0.0
	if len(recent) > 0 {
		correct := 0
		for _, e := range recent {
			if e.Correct {
				correct++
			}
		}
		recentPerformance = float64(correct) / float64(len(recent)) * 100
	}

	return domain.Metrics{
		CurrentDifficulty:   progress.CurrentDifficulty,
		Streak:              progress.Streak,
		MaxStreak:           progress.MaxStreak,
		TotalScore:          progress.TotalScore,
		Accuracy:            accuracy,
		DifficultyHistogram: histogram,
		RecentPerformance:   recentPerformance,
	}, nil
}

// TopByScore returns the top-N board ordered by total score.
func (s *QuizService) TopByScore(ctx context.Context) (domain.Leaderboard, error) {
	return s.ranks.TopByScore(ctx, LeaderboardSize)
}

// TopByStreak returns the top-N board ordered by best streak.
func (s *QuizService) TopByStreak(ctx context.Context) (domain.Leaderboard, error) {
	return s.ranks.TopByStreak(ctx, LeaderboardSize)
}

// Subscribe returns a channel that receives a score leaderboard snapshot after
// every applied answer. The caller must invoke cancel to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.ranks.TopByScore(ctx, LeaderboardSize)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	ch <- initial

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel, nil
}

func (s *QuizService) broadcastLeaderboard(ctx context.Context) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subscribers) == 0 {
		return
	}

	lb, err := s.ranks.TopByScore(ctx, LeaderboardSize)
	if err != nil {
		log.Printf("leaderboard broadcast: %v", err)
		return
	}
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the stale update so a slow client never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
