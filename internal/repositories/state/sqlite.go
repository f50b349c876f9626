package state

import (
	"database/sql"

	"github.com/dmitrijs2005/todobot/internal/logging"
)

var sqliteQueries = queries{
	selectUsers: `SELECT user_id, next_task_id, timezone, last_notified FROM users ORDER BY user_id`,
	selectTasks: `SELECT user_id, id, name, due_date, completed, created_at, assigner_id
		FROM tasks ORDER BY user_id, id`,
	upsertUser: `INSERT INTO users (user_id, next_task_id, timezone, last_notified)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			next_task_id = excluded.next_task_id,
			timezone = excluded.timezone,
			last_notified = excluded.last_notified`,
	deleteTasks: `DELETE FROM tasks WHERE user_id = ?`,
	insertTask: `INSERT INTO tasks (user_id, id, name, due_date, completed, created_at, assigner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	selectAssignments: `SELECT id, giver_id, recipient_id, name, due_date, status, created_at, expires_at
		FROM assignments ORDER BY created_at, id`,
	upsertAssignment: `INSERT INTO assignments (id, giver_id, recipient_id, name, due_date, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status`,
}

// NewSQLiteRepository expects the schema from migrations/sqlite.
func NewSQLiteRepository(db *sql.DB, log logging.Logger) *SQLRepository {
	return newSQLRepository(db, sqliteQueries, log)
}
