package state

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/migrations"
	"github.com/dmitrijs2005/todobot/internal/models"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.Dir("sqlite3")))
	return db
}

func sampleUser() *models.UserState {
	created := time.Date(2024, 1, 9, 15, 4, 5, 0, time.UTC)
	return &models.UserState{
		UserID:       "u1",
		NextID:       4,
		Timezone:     "US/Eastern",
		LastNotified: datex.MustParse("2024-01-09").Ptr(),
		Tasks: []models.Task{
			{ID: 1, Name: "Buy milk", Due: datex.MustParse("2024-01-11").Ptr(), CreatedAt: created},
			{ID: 3, Name: "Call mom", Completed: true, CreatedAt: created, AssignerID: "u2"},
		},
	}
}

func TestSQLite_SaveAndLoadUser(t *testing.T) {
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db, logging.Nop())
	ctx := context.Background()

	require.NoError(t, repo.SaveUser(ctx, sampleUser()))

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	got := users[0]
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, int64(4), got.NextID)
	assert.Equal(t, "US/Eastern", got.Timezone)
	require.NotNil(t, got.LastNotified)
	assert.Equal(t, "2024-01-09", got.LastNotified.String())

	require.Len(t, got.Tasks, 2)
	assert.Equal(t, int64(1), got.Tasks[0].ID)
	assert.Equal(t, "Buy milk", got.Tasks[0].Name)
	assert.Equal(t, "2024-01-11", got.Tasks[0].Due.String())
	assert.False(t, got.Tasks[0].Completed)
	assert.True(t, got.Tasks[0].CreatedAt.Equal(time.Date(2024, 1, 9, 15, 4, 5, 0, time.UTC)))
	assert.Nil(t, got.Tasks[1].Due)
	assert.True(t, got.Tasks[1].Completed)
	assert.Equal(t, "u2", got.Tasks[1].AssignerID)
}

func TestSQLite_SaveUserReplacesTasks(t *testing.T) {
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db, logging.Nop())
	ctx := context.Background()

	u := sampleUser()
	require.NoError(t, repo.SaveUser(ctx, u))

	u.Tasks = u.Tasks[:1]
	u.Timezone = ""
	u.LastNotified = nil
	require.NoError(t, repo.SaveUser(ctx, u))

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Len(t, users[0].Tasks, 1)
	assert.Empty(t, users[0].Timezone)
	assert.Nil(t, users[0].LastNotified)
}

func TestSQLite_MalformedDateLoadsUndated(t *testing.T) {
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db, logging.Nop())
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO users (user_id, next_task_id) VALUES ('u9', 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tasks (user_id, id, name, due_date, completed, created_at)
		VALUES ('u9', 7, 'legacy', 'someday', 0, '2024-01-01 10:00:00')`)
	require.NoError(t, err)

	users, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Len(t, users[0].Tasks, 1)
	assert.Nil(t, users[0].Tasks[0].Due)
	assert.Equal(t, int64(8), users[0].NextID, "next id never reuses a stored id")
}

func TestSQLite_Assignments(t *testing.T) {
	db := setupSQLite(t)
	repo := NewSQLiteRepository(db, logging.Nop())
	ctx := context.Background()

	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	a := &models.Assignment{
		ID:        "a-1",
		Giver:     "u1",
		Recipient: "u2",
		Name:      "Review PR",
		Due:       datex.MustParse("2024-01-12").Ptr(),
		Status:    models.AssignmentPending,
		CreatedAt: created,
		ExpiresAt: created.Add(24 * time.Hour),
	}
	require.NoError(t, repo.SaveAssignment(ctx, a))

	a.Status = models.AssignmentAccepted
	require.NoError(t, repo.SaveAssignment(ctx, a))

	require.NoError(t, repo.SaveAssignment(ctx, &models.Assignment{
		ID: "a-2", Giver: "u2", Recipient: "u1", Name: "No deadline",
		Status: models.AssignmentPending, CreatedAt: created.Add(time.Minute),
	}))

	got, err := repo.LoadAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a-1", got[0].ID)
	assert.Equal(t, models.AssignmentAccepted, got[0].Status)
	assert.Equal(t, "2024-01-12", got[0].Due.String())
	assert.True(t, got[0].ExpiresAt.Equal(created.Add(24*time.Hour)))

	assert.Equal(t, "a-2", got[1].ID)
	assert.Nil(t, got[1].Due)
	assert.True(t, got[1].ExpiresAt.IsZero())
}
