package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/campground-backend/pkg/logger"
)

const (
	outboxRetentionJobName = "outbox_retention"
	defaultOutboxRetention = 7 * 24 * time.Hour
	defaultDLQRetention    = 30 * 24 * time.Hour
)

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams configures the cleanup job. DeadLetters is
// optional; without it parked events are kept forever.
type OutboxRetentionJobParams struct {
	Logger       *logger.Logger
	Repository   outboxRetentionRepo
	Retention    time.Duration
	DeadLetters  dlqRetentionRepo
	DLQRetention time.Duration
}

type outboxRetentionJob struct {
	logg *logger.Logger
	now  func() time.Time

	outbox    outboxRetentionRepo
	retention time.Duration

	dlq          dlqRetentionRepo
	dlqRetention time.Duration
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		now:          time.Now,
		outbox:       params.Repository,
		retention:    orDefault(params.Retention, defaultOutboxRetention),
		dlq:          params.DeadLetters,
		dlqRetention: orDefault(params.DLQRetention, defaultDLQRetention),
	}, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

// Run prunes published outbox rows and, when configured, old DLQ entries.
// The DLQ pass runs even if the outbox pass failed.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	err := j.prune(ctx, "outbox", now.Add(-j.retention), j.outbox.DeletePublishedBefore)
	if j.dlq != nil {
		err = multierr.Append(err, j.prune(ctx, "outbox_dlq", now.Add(-j.dlqRetention), j.dlq.DeleteFailedBefore))
	}
	return err
}

func (j *outboxRetentionJob) prune(ctx context.Context, table string, cutoff time.Time, del func(context.Context, time.Time) (int64, error)) error {
	deleted, err := del(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %s: %w", table, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"table":        table,
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "retention cleanup complete")
	return nil
}
