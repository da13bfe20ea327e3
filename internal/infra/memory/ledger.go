package memory

import (
	"context"
	"sync"
)

// IdempotencyLedger tracks consumed submission keys in a plain set. Keys are
// never evicted; bounding growth is left to durable implementations.
type IdempotencyLedger struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewIdempotencyLedger() *IdempotencyLedger {
	return &IdempotencyLedger{seen: make(map[string]struct{})}
}

// TryConsume marks the key as consumed and reports true the first time it is
// seen; every later call with the same key reports false.
func (l *IdempotencyLedger) TryConsume(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[key]; ok {
		return false, nil
	}
	l.seen[key] = struct{}{}
	return true, nil
}
