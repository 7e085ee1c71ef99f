package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/bookings"
	"github.com/angelmondragon/campground-backend/internal/cron"
	"github.com/angelmondragon/campground-backend/pkg/bootstrap"
	"github.com/angelmondragon/campground-backend/pkg/metrics"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
)

const serviceName = "cron-worker"

type options struct {
	once bool
	job  string
}

func main() {
	var opts options
	flag.BoolVar(&opts.once, "once", false, "run a single cycle and exit")
	flag.StringVar(&opts.job, "job", "", "with -once, run only the named job")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, serviceName)
	if err != nil {
		bootstrap.Fatal(serviceName, "cron worker failed to start", err)
	}

	err = run(ctx, rt, opts)
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "cron worker cleanup failed", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	rt.Logger.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime, opts options) error {
	service, lockKey, err := buildService(rt)
	if err != nil {
		return err
	}
	ctx = rt.Context(ctx, map[string]any{"lockKey": lockKey})

	if opts.once {
		rt.Logger.Info(ctx, "running single cron cycle")
		return service.RunOnce(ctx, opts.job)
	}
	rt.Logger.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func buildService(rt *bootstrap.Runtime) (*cron.Service, string, error) {
	cfg := rt.Config
	lock, err := cron.NewRedisLock(rt.Redis, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, "", fmt.Errorf("cron lock: %w", err)
	}

	outboxRepo := outbox.NewRepository(rt.DB.DB())
	expiryJob, err := cron.NewBookingExpiryJob(cron.BookingExpiryJobParams{
		Logger: rt.Logger,
		DB:     rt.DB,
		Bookings: func(tx *gorm.DB) cron.ExpiredBookingDeleter {
			return bookings.NewRepository(tx)
		},
		Outbox: outbox.NewService(outboxRepo, rt.Logger),
	})
	if err != nil {
		return nil, "", fmt.Errorf("booking expiry job: %w", err)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       rt.Logger,
		Repository:   outboxRepo,
		Retention:    cfg.Cron.OutboxRetention,
		DeadLetters:  outbox.NewDLQRepository(rt.DB.DB()),
		DLQRetention: cfg.Cron.DLQRetention,
	})
	if err != nil {
		return nil, "", fmt.Errorf("outbox retention job: %w", err)
	}

	registry, err := cron.NewRegistry(expiryJob, retentionJob)
	if err != nil {
		return nil, "", fmt.Errorf("cron registry: %w", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:         rt.Logger,
		Registry:       registry,
		Lock:           lock,
		Metrics:        metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:       cfg.Cron.Interval,
		AnchorMidnight: cfg.Cron.AnchorMidnight,
	})
	if err != nil {
		return nil, "", err
	}
	return service, lock.Key(), nil
}

// lockName scopes the scheduler lock per environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
