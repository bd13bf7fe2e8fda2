package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

const defaultCartTTL = 30 * 24 * time.Hour

type cartPruner interface {
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type CartExpiryJobParams struct {
	Logger *logger.Logger
	Carts  cartPruner
	TTL    time.Duration
}

// NewCartExpiryJob removes carts nobody touched within TTL. Carts are keyed
// by anonymous session ids, so idle rows would otherwise never be reclaimed.
func NewCartExpiryJob(params CartExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &cartExpiryJob{logg: params.Logger, carts: params.Carts, ttl: ttl, now: time.Now}, nil
}

type cartExpiryJob struct {
	logg  *logger.Logger
	carts cartPruner
	ttl   time.Duration
	now   func() time.Time
}

func (j *cartExpiryJob) Name() string { return "cart-expiry" }

func (j *cartExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	deleted, err := j.carts.DeleteIdleBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete idle carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"carts_deleted": deleted,
	}), "idle carts pruned")
	return nil
}
