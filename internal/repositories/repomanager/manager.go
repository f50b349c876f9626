// Package repomanager opens the configured database, applies the embedded
// goose migrations and hands out the matching state repository.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/migrations"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Manager owns the database handle behind a state.Repository.
type Manager struct {
	db   *sql.DB
	repo state.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects with driver ("sqlite", "postgres" or "memory") and dsn and
// migrates the schema to the latest version.
func Open(ctx context.Context, driver, dsn string, log logging.Logger) (*Manager, error) {
	switch driver {
	case DriverMemory:
		return &Manager{repo: state.NewMemoryRepository()}, nil
	case DriverSQLite:
		db, err := sqlOpen("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		// One writer at a time; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
		if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Manager{db: db, repo: state.NewSQLiteRepository(db, log)}, nil
	case DriverPostgres:
		db, err := sqlOpen("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := RunMigrations(ctx, db, "pgx"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Manager{db: db, repo: state.NewPostgresRepository(db, log)}, nil
	}
	return nil, fmt.Errorf("unknown db driver %q", driver)
}

// RunMigrations applies the embedded migrations for the goose dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, migrations.Dir(dialect)); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}

func (m *Manager) State() state.Repository {
	return m.repo
}

// Close releases the database; it is a no-op for the memory driver.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
