package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/campground-backend/pkg/bootstrap"
	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/migrate"
)

const usage = `usage: migrate -cmd <command> [flags]

commands without a database:
  create    -name <name>   write an empty migration into -dir
  validate                 check migration filenames and goose markers in -dir

commands against CAMPGROUND_DB_DSN:
  up                       apply all pending migrations
  down                     roll back the latest migration
  status                   list applied and pending migrations
  version   -version <v>   migrate up or down to YYYYMMDDHHMMSS
`

func main() {
	cmd := flag.String("cmd", "up", "migration command")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; empty uses the embedded set")
	name := flag.String("name", "", "migration name for create")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load()

	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed:\n%v", err)
		}
		fmt.Println("migration validation passed")
		return
	case "up", "down", "status", "version":
	default:
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}
	logg := bootstrap.ConfiguredLogger("migrate", cfg.App)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	if err := run(ctx, cfg, logg, *cmd, *dir, *version); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, cmd, dir, version string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()
	if !dbClient.IsPostgres() {
		return fmt.Errorf("goose migrations require postgres; sqlite builds its schema from models")
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	migrator, err := migrate.New(sqlDB, dir)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	default:
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrator.To(ctx, version)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
