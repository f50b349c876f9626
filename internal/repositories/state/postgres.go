package state

import (
	"database/sql"

	"github.com/dmitrijs2005/todobot/internal/logging"
)

var postgresQueries = queries{
	selectUsers: `SELECT user_id, next_task_id, timezone, last_notified FROM users ORDER BY user_id`,
	selectTasks: `SELECT user_id, id, name, due_date, completed, created_at, assigner_id
		FROM tasks ORDER BY user_id, id`,
	upsertUser: `INSERT INTO users (user_id, next_task_id, timezone, last_notified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			next_task_id = EXCLUDED.next_task_id,
			timezone = EXCLUDED.timezone,
			last_notified = EXCLUDED.last_notified`,
	deleteTasks: `DELETE FROM tasks WHERE user_id = $1`,
	insertTask: `INSERT INTO tasks (user_id, id, name, due_date, completed, created_at, assigner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	selectAssignments: `SELECT id, giver_id, recipient_id, name, due_date, status, created_at, expires_at
		FROM assignments ORDER BY created_at, id`,
	upsertAssignment: `INSERT INTO assignments (id, giver_id, recipient_id, name, due_date, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
}

// NewPostgresRepository expects the schema from migrations/postgres and a
// pgx stdlib connection.
func NewPostgresRepository(db *sql.DB, log logging.Logger) *SQLRepository {
	return newSQLRepository(db, postgresQueries, log)
}
