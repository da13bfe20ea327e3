package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"brainbolt-service/internal/domain"
)

// CatalogLoader fetches the full question pool from a backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Question, error)
}

// Catalog serves questions from a loader, cached with TTL to avoid repeated
// backing-store reads. A TTL of zero caches forever (static catalogs).
type Catalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu     sync.RWMutex
	cached *indexedCatalog
}

type indexedCatalog struct {
	all          []domain.Question
	byDifficulty map[int][]domain.Question
	byID         map[string]domain.Question
	expiresAt    time.Time
}

func NewCatalog(loader CatalogLoader, ttl time.Duration) *Catalog {
	return NewCatalogWithRand(loader, ttl, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewCatalogWithRand injects the random source so tests can pin selection.
func NewCatalogWithRand(loader CatalogLoader, ttl time.Duration, rnd *rand.Rand) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rnd,
	}
}

// QuestionByDifficulty picks uniformly at random from the pool at exactly the
// requested difficulty. With no pool at that level it falls back to an
// arbitrary catalog entry rather than failing the fetch.
func (c *Catalog) QuestionByDifficulty(ctx context.Context, difficulty int) (domain.Question, error) {
	idx, err := c.catalog(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	pool := idx.byDifficulty[difficulty]
	if len(pool) == 0 {
		if len(idx.all) == 0 {
			return domain.Question{}, domain.ErrEmptyCatalog
		}
		return idx.all[0], nil
	}
	c.rndMu.Lock()
	pick := c.rnd.Intn(len(pool))
	c.rndMu.Unlock()
	return pool[pick], nil
}

func (c *Catalog) QuestionByID(ctx context.Context, id string) (domain.Question, error) {
	idx, err := c.catalog(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	question, ok := idx.byID[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (c *Catalog) catalog(ctx context.Context) (*indexedCatalog, error) {
	now := c.clock()

	c.mu.RLock()
	if c.cached != nil && c.cached.live(now) {
		idx := c.cached
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("catalog", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.cached != nil && c.cached.live(now) {
			idx := c.cached
			c.mu.RUnlock()
			return idx, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		idx := index(questions)
		if c.ttl > 0 {
			idx.expiresAt = now.Add(c.ttlWithJitter())
		}
		c.mu.Lock()
		c.cached = idx
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*indexedCatalog), nil
}

func (i *indexedCatalog) live(now time.Time) bool {
	return i.expiresAt.IsZero() || i.expiresAt.After(now)
}

func index(questions []domain.Question) *indexedCatalog {
	idx := &indexedCatalog{
		all:          questions,
		byDifficulty: make(map[int][]domain.Question),
		byID:         make(map[string]domain.Question, len(questions)),
	}
	for _, q := range questions {
		idx.byDifficulty[q.Difficulty] = append(idx.byDifficulty[q.Difficulty], q)
		idx.byID[q.ID] = q
	}
	return idx
}

func (c *Catalog) ttlWithJitter() time.Duration {
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalogLoader serves a fixed question slice (useful for tests/demos).
type StaticCatalogLoader struct {
	questions []domain.Question
}

func NewStaticCatalogLoader(questions []domain.Question) *StaticCatalogLoader {
	return &StaticCatalogLoader{questions: questions}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.Question, error) {
	return l.questions, nil
}
