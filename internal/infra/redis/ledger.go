package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "answer:key:"

// IdempotencyLedger marks consumed submission keys with SETNX so the
// first-writer-wins guarantee holds across service instances. A TTL of zero
// keeps keys forever, matching the in-memory ledger.
type IdempotencyLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyLedger(client *redis.Client, ttl time.Duration) *IdempotencyLedger {
	return &IdempotencyLedger{client: client, ttl: ttl}
}

func (l *IdempotencyLedger) TryConsume(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKeyPrefix+key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume idempotency key: %w", err)
	}
	return ok, nil
}
