package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// AnchorMidnight delays the first cycle to the next UTC midnight so runs
	// line up with calendar days.
	AnchorMidnight bool
	Now            func() time.Time
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	anchor   bool
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		anchor:   params.AnchorMidnight,
		now:      now,
	}, nil
}

// Run executes a cycle right away, or at the next UTC midnight when
// anchored, and then on every interval slot after that until ctx is
// cancelled. Slots are fixed, so a long cycle does not push later runs back;
// slots missed while a cycle was running are skipped.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"jobs":     s.registry.Names(),
		"interval": s.interval.String(),
	})
	next := s.now()
	if s.anchor {
		wait := untilNextMidnight(next)
		next = next.Add(wait)
		s.logg.Info(s.logg.WithField(ctx, "first_run_in", wait.String()), "cron anchored to midnight UTC")
	}

	timer := time.NewTimer(next.Sub(s.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		next = nextSlot(next, s.interval, s.now())
		timer.Reset(next.Sub(s.now()))
	}
}

// nextSlot returns the first prev+k*interval (k >= 1) strictly after now.
func nextSlot(prev time.Time, interval time.Duration, now time.Time) time.Time {
	next := prev.Add(interval)
	if !next.After(now) {
		missed := int64(now.Sub(next)/interval) + 1
		next = next.Add(time.Duration(missed) * interval)
	}
	return next
}

// RunOnce executes a single locked cycle, optionally limited to one job.
func (s *Service) RunOnce(ctx context.Context, jobName string) error {
	if jobName == "" {
		return s.runCycle(ctx)
	}
	job, ok := s.registry.Lookup(jobName)
	if !ok {
		return fmt.Errorf("unknown job %q", jobName)
	}
	return s.withLock(ctx, func() error {
		return s.runJob(ctx, job)
	})
}

func (s *Service) runCycle(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		s.logg.Info(ctx, "scheduled run starting")
		// every job runs even if an earlier one failed
		var errs error
		for _, job := range s.registry.Jobs() {
			errs = multierr.Append(errs, s.runJob(ctx, job))
		}
		s.logg.Info(ctx, "scheduled run complete")
		return errs
	})
}

func (s *Service) withLock(ctx context.Context, fn func() error) (err error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}

	stopHeartbeat := func() {}
	if r, ok := s.lock.(refresher); ok {
		stopHeartbeat = s.heartbeat(ctx, r)
	}
	defer func() {
		stopHeartbeat()
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
			err = multierr.Append(err, fmt.Errorf("lock release: %w", relErr))
		}
	}()
	return fn()
}

// heartbeat extends the lease at a third of its TTL until the returned stop
// func is called.
func (s *Service) heartbeat(ctx context.Context, r refresher) func() {
	every := r.TTL() / 3
	if every <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Refresh(ctx); err != nil {
					s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cron lock refresh failed")
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveRun(job.Name(), duration, err)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}

func untilNextMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
