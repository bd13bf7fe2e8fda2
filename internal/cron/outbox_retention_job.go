package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

const defaultOutboxRetentionDays = 30

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    outboxRetentionRepo
	RetentionDays int
	// MaxAttempts matches the publisher's retry ceiling. Zero keeps
	// exhausted rows forever.
	MaxAttempts int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
	DeleteExhaustedBefore(tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error)
}

// NewOutboxRetentionJob prunes delivered events and events that ran out of
// retries once they are older than the retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	return &outboxRetentionJob{
		logg:        params.Logger,
		repo:        params.Repository,
		retention:   time.Duration(days) * 24 * time.Hour,
		maxAttempts: params.MaxAttempts,
		now:         time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	repo        outboxRetentionRepo
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	var errs error
	published, err := j.repo.DeletePublishedBefore(nil, cutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete published events: %w", err))
	}
	exhausted, err := j.repo.DeleteExhaustedBefore(nil, cutoff, j.maxAttempts)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete exhausted events: %w", err))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":            cutoff,
		"published_deleted": published,
		"exhausted_deleted": exhausted,
	}), "outbox retention pass finished")
	return errs
}
