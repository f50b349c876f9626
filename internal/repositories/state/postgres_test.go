package state

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
)

func newPostgresWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db, logging.Nop()), mock, db
}

func TestPostgres_SaveUser(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)
	u := sampleUser()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT INTO users .*VALUES \(\$1, \$2, \$3, \$4\).*ON CONFLICT \(user_id\)`).
		WithArgs("u1", int64(4), "US/Eastern", "2024-01-09").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM tasks WHERE user_id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`(?s)^INSERT INTO tasks`).
		WithArgs("u1", int64(1), "Buy milk", "2024-01-11", false, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^INSERT INTO tasks`).
		WithArgs("u1", int64(3), "Call mom", nil, true, sqlmock.AnyArg(), "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveUser(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveUserRollsBackOnError(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM tasks`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := repo.SaveUser(context.Background(), sampleUser())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`failed to clear tasks: .*db down`), err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadUsers(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)
	created := time.Date(2024, 1, 9, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^SELECT user_id, next_task_id, timezone, last_notified FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "next_task_id", "timezone", "last_notified"}).
			AddRow("u1", int64(3), "Europe/Riga", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)).
			AddRow("u2", int64(1), nil, nil))
	mock.ExpectQuery(`(?s)^SELECT user_id, id, name, due_date, completed, created_at, assigner_id\s+FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "id", "name", "due_date", "completed", "created_at", "assigner_id"}).
			AddRow("u1", int64(1), "a", time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), false, created, nil).
			AddRow("u1", int64(2), "b", nil, true, created, "u2"))

	users, err := repo.LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "Europe/Riga", users[0].Timezone)
	assert.Equal(t, "2024-01-09", users[0].LastNotified.String())
	require.Len(t, users[0].Tasks, 2)
	assert.Equal(t, "2024-01-12", users[0].Tasks[0].Due.String())
	assert.True(t, users[0].Tasks[0].CreatedAt.Equal(created))
	assert.Equal(t, "u2", users[0].Tasks[1].AssignerID)

	assert.Empty(t, users[1].Timezone)
	assert.Nil(t, users[1].LastNotified)
	assert.Empty(t, users[1].Tasks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadUsersQueryError(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)

	mock.ExpectQuery(`^SELECT user_id`).WillReturnError(errors.New("conn reset"))

	_, err := repo.LoadUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestPostgres_SaveAssignment(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT INTO assignments .*ON CONFLICT \(id\) DO UPDATE SET status = EXCLUDED.status$`).
		WithArgs("a-1", "u1", "u2", "Review", "2024-01-12", "declined", created, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveAssignment(context.Background(), &models.Assignment{
		ID: "a-1", Giver: "u1", Recipient: "u2", Name: "Review",
		Due: datex.MustParse("2024-01-12").Ptr(), Status: models.AssignmentDeclined, CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadAssignments(t *testing.T) {
	repo, mock, _ := newPostgresWithMock(t)
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT id, giver_id, recipient_id, name, due_date, status, created_at, expires_at\s+FROM assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "giver_id", "recipient_id", "name", "due_date", "status", "created_at", "expires_at"}).
			AddRow("a-1", "u1", "u2", "Review", nil, "pending", created, created.Add(time.Hour)))

	got, err := repo.LoadAssignments(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.AssignmentPending, got[0].Status)
	assert.True(t, got[0].ExpiresAt.Equal(created.Add(time.Hour)))
	require.NoError(t, mock.ExpectationsWereMet())
}
