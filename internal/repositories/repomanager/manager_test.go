package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
)

func TestOpen_Memory(t *testing.T) {
	m, err := Open(context.Background(), DriverMemory, "", logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &state.MemoryRepository{}, m.State())
	assert.NoError(t, m.Close())
}

func TestOpen_SQLiteRunsRealMigrations(t *testing.T) {
	ctx := context.Background()
	m, err := Open(ctx, DriverSQLite, ":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	repo := m.State()
	require.NoError(t, repo.SaveUser(ctx, &models.UserState{UserID: "u1", NextID: 1}))

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].UserID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", logging.Nop())
	assert.EqualError(t, err, `unknown db driver "mysql"`)
}

func TestOpen_PostgresUsesPgxAndMigrates(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)

	origOpen, origUp := sqlOpen, gooseUpContext
	t.Cleanup(func() { sqlOpen, gooseUpContext = origOpen, origUp })

	var openedWith, migratedDir string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		openedWith = driver + " " + dsn
		return db, nil
	}
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		migratedDir = dir
		return nil
	}

	m, err := Open(context.Background(), DriverPostgres, "postgres://x", logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, "pgx postgres://x", openedWith)
	assert.Equal(t, "postgres", migratedDir)
	assert.IsType(t, &state.SQLRepository{}, m.State())
	assert.NoError(t, m.Close())
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err = RunMigrations(context.Background(), db, "pgx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunMigrations_BadDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, RunMigrations(context.Background(), db, "oracle-ish"))
}
