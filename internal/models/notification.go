package models

import "time"

type NotificationKind string

const (
	// NotifyDueToday lists the tasks due on the user's local today.
	NotifyDueToday NotificationKind = "due_today"
	// NotifyUpcoming lists the next few tasks when nothing is due today.
	NotifyUpcoming NotificationKind = "upcoming"
	// NotifyEmpty tells the user there is nothing on the list.
	NotifyEmpty NotificationKind = "empty"
)

// Notification is one direct message queued for delivery.
type Notification struct {
	ID     string           `json:"id"`
	UserID string           `json:"user_id"`
	Kind   NotificationKind `json:"kind"`
	// Day is the user's local calendar day the notification is for.
	Day     string    `json:"day"`
	Startup bool      `json:"startup,omitempty"`
	Tasks   []Task    `json:"tasks,omitempty"`
	Text    string    `json:"text"`
	Created time.Time `json:"created_at"`
}

const (
	// NotifyAssignment offers a task from another user.
	NotifyAssignment NotificationKind = "assignment"
	// NotifyAssignmentResult tells the giver what the recipient decided.
	NotifyAssignmentResult NotificationKind = "assignment_result"
)
