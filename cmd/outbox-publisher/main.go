package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/campground-backend/pkg/bootstrap"
	"github.com/angelmondragon/campground-backend/pkg/metrics"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
	"github.com/angelmondragon/campground-backend/pkg/outbox/publishguard"
	"github.com/angelmondragon/campground-backend/pkg/outbox/registry"
	"github.com/angelmondragon/campground-backend/pkg/pubsub"
)

const publishGuardTTL = 7 * 24 * time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, consumerName)
	if err != nil {
		bootstrap.Fatal(consumerName, "outbox publisher failed to start", err)
	}
	logg := rt.Logger

	err = run(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		logg.Error(ctx, "outbox publisher cleanup failed", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config

	guard, err := publishguard.New(rt.Redis, consumerName, publishGuardTTL)
	if err != nil {
		return err
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, rt.Logger)
	if err != nil {
		return err
	}
	rt.OnClose("pubsub", pubsubClient.Close)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}
	topics := eventRegistry.Topics()
	for _, topic := range topics {
		pubsubClient.Publisher(topic)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        rt.Logger,
		DB:            rt.DB,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(rt.DB.DB()),
		Guard:         guard,
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	ctx = rt.Context(ctx, map[string]any{"topics": topics})
	rt.Logger.Info(ctx, "starting outbox publisher")
	return service.Run(ctx)
}
