package models

import (
	"time"

	"github.com/dmitrijs2005/todobot/internal/datex"
)

type AssignmentStatus string

const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentDeclined AssignmentStatus = "declined"
	AssignmentExpired  AssignmentStatus = "expired"
)

// Assignment is a task proposed by Giver to Recipient. It only becomes a
// Task in the recipient's list once the recipient accepts it.
type Assignment struct {
	ID        string           `json:"id"`
	Giver     string           `json:"giver_id"`
	Recipient string           `json:"recipient_id"`
	Name      string           `json:"name"`
	Due       *datex.Date      `json:"due_date,omitempty"`
	Status    AssignmentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	// ExpiresAt is zero when the proposal never expires.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ExpiredAt reports whether a pending assignment is past its deadline.
func (a *Assignment) ExpiredAt(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}
