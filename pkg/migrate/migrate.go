package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk location used by the create and validate
// commands. Running binaries apply the embedded copy.
const DefaultDir = "pkg/migrate/migrations"

// The SQL relies on postgres-only features (pgcrypto, gen_random_uuid).
const dialect = "postgres"

//go:embed migrations/*.sql
var embedded embed.FS

// gooseMu serialises use of goose's package level dialect and base FS.
var gooseMu sync.Mutex

// Migrator applies the campground schema with goose. An empty dir selects the
// migrations compiled into the binary.
type Migrator struct {
	db  *sql.DB
	dir string
}

func New(db *sql.DB, dir string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Migrator{db: db, dir: dir}, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func(dir string) error { return goose.UpContext(ctx, m.db, dir) }, "up")
}

// Down rolls back the most recent migration only.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func(dir string) error { return goose.DownContext(ctx, m.db, dir) }, "down")
}

// Status prints the applied and pending migrations through goose's logger.
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func(dir string) error { return goose.StatusContext(ctx, m.db, dir) }, "status")
}

// To migrates up or down until the database sits at version
// (YYYYMMDDHHMMSS). It is a no-op when already there.
func (m *Migrator) To(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || len(version) != len(versionLayout) {
		return fmt.Errorf("invalid version %q (expected %s)", version, versionLayout)
	}
	return m.run(func(dir string) error {
		current, err := goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			return goose.UpToContext(ctx, m.db, dir, target)
		case current > target:
			return goose.DownToContext(ctx, m.db, dir, target)
		}
		return nil
	}, "version "+version)
}

func (m *Migrator) run(fn func(dir string) error, command string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir := m.dir
	if dir == "" {
		goose.SetBaseFS(embedded)
		dir = "migrations"
	} else {
		goose.SetBaseFS(nil)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := fn(dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
