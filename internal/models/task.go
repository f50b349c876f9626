// Package models defines the task, user-state and assignment records shared
// by the store, the services and the persistence layer.
package models

import (
	"time"

	"github.com/dmitrijs2005/todobot/internal/datex"
)

// Task is a single item on one user's list.
type Task struct {
	// ID is unique within the owner's list and never reused.
	ID int64 `json:"id"`
	// Name is the user supplied text of the task.
	Name string `json:"name"`
	// Due is the optional calendar day the task is due on.
	Due *datex.Date `json:"due_date,omitempty"`
	// Completed tasks are kept for history but hidden from listings.
	Completed bool `json:"completed"`
	// CreatedAt is set by the store when the task is added.
	CreatedAt time.Time `json:"created_at"`
	// AssignerID is the user who gave the task, empty for own tasks.
	AssignerID string `json:"assigner_id,omitempty"`
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return t.Due != nil && !t.Due.IsZero()
}
