package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/dbx"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
)

type queries struct {
	selectUsers       string
	selectTasks       string
	upsertUser        string
	deleteTasks       string
	insertTask        string
	selectAssignments string
	upsertAssignment  string
}

// SQLRepository is the database/sql backed Repository. The SQLite and
// Postgres variants differ only in their statements.
type SQLRepository struct {
	db  *sql.DB
	q   queries
	log logging.Logger
}

func newSQLRepository(db *sql.DB, q queries, log logging.Logger) *SQLRepository {
	if log == nil {
		log = logging.Nop()
	}
	return &SQLRepository{db: db, q: q, log: log.With("module", "state")}
}

func (r *SQLRepository) LoadUsers(ctx context.Context) ([]*models.UserState, error) {
	users, err := r.loadUserRows(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.UserState, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	rows, err := r.db.QueryContext(ctx, r.q.selectTasks)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    string
			t         models.Task
			due       sql.NullString
			createdAt timeValue
			assigner  sql.NullString
		)
		if err := rows.Scan(&userID, &t.ID, &t.Name, &due, &t.Completed, &createdAt, &assigner); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Due = r.storedDate(ctx, due, "user", userID, "task", t.ID)
		t.CreatedAt = createdAt.Time
		t.AssignerID = assigner.String

		u, ok := byID[userID]
		if !ok {
			r.log.Warn(ctx, "task without user row", "user", userID, "task", t.ID)
			u = models.NewUserState(userID)
			byID[userID] = u
			users = append(users, u)
		}
		u.Tasks = append(u.Tasks, t)
		if t.ID >= u.NextID {
			u.NextID = t.ID + 1
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

// loadUserRows drains the users result set before tasks are queried, so a
// single-connection SQLite pool never needs two open cursors.
func (r *SQLRepository) loadUserRows(ctx context.Context) ([]*models.UserState, error) {
	rows, err := r.db.QueryContext(ctx, r.q.selectUsers)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []*models.UserState
	for rows.Next() {
		var (
			u            models.UserState
			timezone     sql.NullString
			lastNotified sql.NullString
		)
		if err := rows.Scan(&u.UserID, &u.NextID, &timezone, &lastNotified); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Timezone = timezone.String
		u.LastNotified = r.storedDate(ctx, lastNotified, "user", u.UserID)
		if u.NextID < 1 {
			u.NextID = 1
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

// storedDate parses a stored date column. Malformed values are logged and
// treated as absent instead of failing the whole load.
func (r *SQLRepository) storedDate(ctx context.Context, v sql.NullString, logArgs ...any) *datex.Date {
	if !v.Valid || v.String == "" {
		return nil
	}
	var d datex.Date
	if err := d.Scan(v.String); err != nil {
		r.log.Warn(ctx, "dropping malformed stored date", append(logArgs, "value", v.String, "error", err)...)
		return nil
	}
	return &d
}

func (r *SQLRepository) SaveUser(ctx context.Context, u *models.UserState) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q.upsertUser,
			u.UserID, u.NextID, dbx.NullString(u.Timezone), dateArg(u.LastNotified)); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, r.q.deleteTasks, u.UserID); err != nil {
			return fmt.Errorf("failed to clear tasks: %w", err)
		}
		for _, t := range u.Tasks {
			if _, err := tx.ExecContext(ctx, r.q.insertTask,
				u.UserID, t.ID, t.Name, dateArg(t.Due), t.Completed, t.CreatedAt.UTC(), dbx.NullString(t.AssignerID)); err != nil {
				return fmt.Errorf("failed to insert task %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLRepository) LoadAssignments(ctx context.Context) ([]*models.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, r.q.selectAssignments)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		var (
			a         models.Assignment
			due       sql.NullString
			status    string
			createdAt timeValue
			expiresAt timeValue
		)
		if err := rows.Scan(&a.ID, &a.Giver, &a.Recipient, &a.Name, &due, &status, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Due = r.storedDate(ctx, due, "assignment", a.ID)
		a.Status = models.AssignmentStatus(status)
		a.CreatedAt = createdAt.Time
		a.ExpiresAt = expiresAt.Time
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) SaveAssignment(ctx context.Context, a *models.Assignment) error {
	var expires any
	if !a.ExpiresAt.IsZero() {
		expires = a.ExpiresAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, r.q.upsertAssignment,
		a.ID, a.Giver, a.Recipient, a.Name, dateArg(a.Due), string(a.Status), a.CreatedAt.UTC(), expires)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func dateArg(d *datex.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

// timeValue scans nullable timestamps from drivers that return either
// time.Time (pgx) or text (SQLite columns written by other tools).
type timeValue struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (v *timeValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		v.Time = time.Time{}
		return nil
	case time.Time:
		v.Time = s
		return nil
	case []byte:
		return v.parse(string(s))
	case string:
		return v.parse(s)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (v *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
