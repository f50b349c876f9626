package models

import (
	"github.com/dmitrijs2005/todobot/internal/datex"
)

// UserState is everything the bot keeps for one user. It is the unit of
// locking in the store and the unit of persistence.
type UserState struct {
	UserID string `json:"user_id"`
	// NextID is the ID the next added task receives.
	NextID int64 `json:"next_task_id"`
	// Tasks are kept in insertion order.
	Tasks []Task `json:"tasks"`
	// Timezone is a canonical IANA name, empty when the user never set one.
	Timezone string `json:"timezone,omitempty"`
	// LastNotified is the local calendar day of the last daily reminder.
	LastNotified *datex.Date `json:"last_notified,omitempty"`
}

// NewUserState returns an empty state for userID.
func NewUserState(userID string) *UserState {
	return &UserState{UserID: userID, NextID: 1}
}

// Clone returns a deep copy so a failed flush can restore the old state.
func (s *UserState) Clone() *UserState {
	c := *s
	c.Tasks = make([]Task, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.Due != nil {
			d := *t.Due
			t.Due = &d
		}
		c.Tasks[i] = t
	}
	if s.LastNotified != nil {
		d := *s.LastNotified
		c.LastNotified = &d
	}
	return &c
}

// IndexOf returns the slice index of task id, or -1.
func (s *UserState) IndexOf(id int64) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}
