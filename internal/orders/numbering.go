package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// OrderNumberer hands out human-facing order numbers.
type OrderNumberer interface {
	Next(ctx context.Context) (string, error)
}

type sequenceStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// SequenceSeeder returns the highest sequence already used in storage.
type SequenceSeeder func(ctx context.Context) (int64, error)

// RedisNumberer increments a shared Redis counter. The first call seeds the
// counter from storage so a flushed Redis never reissues numbers.
type RedisNumberer struct {
	store  sequenceStore
	key    string
	seed   SequenceSeeder
	seeded atomic.Bool
}

// NewRedisNumberer builds a numberer over key.
func NewRedisNumberer(store sequenceStore, key string, seed SequenceSeeder) (*RedisNumberer, error) {
	if store == nil {
		return nil, fmt.Errorf("sequence store required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("sequence key required")
	}
	return &RedisNumberer{store: store, key: key, seed: seed}, nil
}

func (n *RedisNumberer) Next(ctx context.Context) (string, error) {
	if !n.seeded.Load() && n.seed != nil {
		max, err := n.seed(ctx)
		if err != nil {
			return "", fmt.Errorf("seed order sequence: %w", err)
		}
		if _, err := n.store.SetNX(ctx, n.key, max, 0); err != nil {
			return "", fmt.Errorf("seed order sequence: %w", err)
		}
		n.seeded.Store(true)
	}
	seq, err := n.store.Incr(ctx, n.key)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(seq), nil
}

// FormatOrderNumber renders seq as "#000042".
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("#%06d", seq)
}

// ParseOrderNumber extracts the sequence from a formatted number.
func ParseOrderNumber(number string) (int64, bool) {
	digits := strings.TrimPrefix(number, "#")
	if digits == number || digits == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// fallbackOrderNumber is used when the counter is unreachable.
func fallbackOrderNumber(now time.Time) string {
	return "#" + strconv.FormatInt(now.UnixMilli(), 10)
}
