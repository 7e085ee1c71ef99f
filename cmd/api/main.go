package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/campground-backend/api/routes"
	"github.com/angelmondragon/campground-backend/internal/auth"
	"github.com/angelmondragon/campground-backend/internal/bookings"
	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/internal/paymentmethods"
	"github.com/angelmondragon/campground-backend/internal/transactions"
	"github.com/angelmondragon/campground-backend/internal/users"
	"github.com/angelmondragon/campground-backend/pkg/auth/session"
	"github.com/angelmondragon/campground-backend/pkg/bootstrap"
	"github.com/angelmondragon/campground-backend/pkg/env"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
)

const (
	serviceName     = "api"
	shutdownTimeout = 20 * time.Second
)

func main() {
	// prices and amounts are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, serviceName)
	if err != nil {
		bootstrap.Fatal(serviceName, "api failed to start", err)
	}

	err = serve(ctx, rt)
	if cerr := rt.Close(); cerr != nil {
		rt.Logger.Error(ctx, "api cleanup failed", cerr)
	}
	if err != nil {
		rt.Logger.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, rt *bootstrap.Runtime) error {
	handler, err := buildHandler(rt)
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", rt.Config.App.Port)
	ctx = rt.Context(ctx, map[string]any{"addr": addr})
	rt.Logger.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		rt.Logger.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func buildHandler(rt *bootstrap.Runtime) (http.Handler, error) {
	cfg, logg := rt.Config, rt.Logger
	dbClient, redisClient := rt.DB, rt.Redis

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	campgroundRepo := campgrounds.NewRepository(conn)
	paymentRepo := paymentmethods.NewRepository(conn)
	bookingRepo := bookings.NewRepository(conn)
	transactionRepo := transactions.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	campgroundService, err := campgrounds.NewService(campgrounds.ServiceParams{
		DB:     dbClient,
		Repo:   campgroundRepo,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("campground service: %w", err)
	}

	paymentService, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		Repo:        paymentRepo,
		Logger:      logg,
		RequireLuhn: cfg.Payment.RequireLuhn,
	})
	if err != nil {
		return nil, fmt.Errorf("payment method service: %w", err)
	}

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		DB:             dbClient,
		Repo:           bookingRepo,
		Campgrounds:    campgroundRepo,
		PaymentMethods: paymentRepo,
		Users:          userRepo,
		Outbox:         outboxService,
		Logger:         logg,
		MaxPerUser:     cfg.Booking.MaxActivePerUser,
	})
	if err != nil {
		return nil, fmt.Errorf("booking service: %w", err)
	}

	transactionService, err := transactions.NewService(transactions.ServiceParams{
		Repo:           transactionRepo,
		Bookings:       bookingRepo,
		Campgrounds:    campgroundRepo,
		PaymentMethods: paymentRepo,
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("transaction service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessionManager,
		Registry: registry,
	}, routes.Services{
		Auth:           authService,
		Campgrounds:    campgroundService,
		Bookings:       bookingService,
		PaymentMethods: paymentService,
		Transactions:   transactionService,
	})

	return handler, nil
}
