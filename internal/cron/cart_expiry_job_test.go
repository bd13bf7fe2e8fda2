package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

type fakeCartPruner struct {
	cutoff time.Time
	err    error
}

func (f *fakeCartPruner) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestCartExpiryJobUsesTTL(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	pruner := &fakeCartPruner{}
	jobIface, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Carts:  pruner,
		TTL:    48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCartExpiryJob: %v", err)
	}
	job := jobIface.(*cartExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !pruner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s got %s", want, pruner.cutoff)
	}
}

func TestCartExpiryJobPropagatesError(t *testing.T) {
	jobIface, err := NewCartExpiryJob(CartExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Carts:  &fakeCartPruner{err: errors.New("down")},
	})
	if err != nil {
		t.Fatalf("NewCartExpiryJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if jobIface.(*cartExpiryJob).ttl != defaultCartTTL {
		t.Fatal("expected default ttl")
	}
}
