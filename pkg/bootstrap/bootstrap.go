// Package bootstrap holds the start-up sequence shared by every binary:
// environment, config, logger, database and redis.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/instance"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/migrate"
	"github.com/angelmondragon/campground-backend/pkg/redis"
)

// Runtime is the set of shared dependencies a binary runs with.
type Runtime struct {
	Service string
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Start loads .env and config, then opens the database (running dev
// migrations when enabled) and redis. On error everything opened so far is
// closed again.
func Start(ctx context.Context, service string) (*Runtime, error) {
	logg := logger.New(logger.Options{ServiceName: service})
	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = service

	rt := &Runtime{
		Service: service,
		Config:  cfg,
		Logger:  ConfiguredLogger(service, cfg.App),
	}
	if err := rt.open(ctx); err != nil {
		return nil, multierr.Append(err, rt.Close())
	}
	return rt, nil
}

// ConfiguredLogger builds the service logger from the app config.
func ConfiguredLogger(service string, app config.AppConfig) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(app.LogLevel),
		WarnStack:   app.LogWarnStack,
		Format:      app.LogFormat,
	})
}

func (r *Runtime) open(ctx context.Context) error {
	dbClient, err := db.New(ctx, r.Config.DB, r.Logger)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	r.DB = dbClient
	r.OnClose("database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, r.Config, r.Logger, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, r.Config.Redis, r.Logger)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	r.Redis = redisClient
	r.OnClose("redis", redisClient.Close)
	return nil
}

// OnClose registers fn to run on Close. Closers run in reverse order.
func (r *Runtime) OnClose(name string, fn func() error) {
	r.closers = append(r.closers, namedCloser{name: name, close: fn})
}

// Close releases every registered resource and returns the combined error.
func (r *Runtime) Close() error {
	var errs error
	for i := len(r.closers) - 1; i >= 0; i-- {
		c := r.closers[i]
		if err := c.close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	r.closers = nil
	return errs
}

// Context decorates ctx with the fields every log line of the process carries.
func (r *Runtime) Context(ctx context.Context, extra map[string]any) context.Context {
	fields := map[string]any{
		"env":         r.Config.App.Env,
		"serviceKind": r.Service,
		"instance":    instance.GetID(r.Service),
	}
	for k, v := range extra {
		fields[k] = v
	}
	return r.Logger.WithFields(ctx, fields)
}

// Fatal logs err with a default logger and exits with status 1. It is for
// failures before a Runtime exists.
func Fatal(service, msg string, err error) {
	logger.New(logger.Options{ServiceName: service}).Error(context.Background(), msg, err)
	os.Exit(1)
}
