// Package render turns tasks and notifications into chat text.
package render

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// FormatDue describes a due date relative to today.
func FormatDue(due *datex.Date, today datex.Date) string {
	if due == nil || due.IsZero() {
		return "No due date"
	}
	switch delta := today.DaysUntil(*due); {
	case delta == 0:
		return "Today"
	case delta == 1:
		return "Tomorrow"
	case delta == 2:
		return "In 2 days"
	case delta < 0:
		return fmt.Sprintf("Overdue (%s)", due)
	default:
		return fmt.Sprintf("Due: %s", due)
	}
}

func TaskLine(t models.Task, today datex.Date) string {
	return fmt.Sprintf("- [ID: %d] %s (%s)", t.ID, t.Name, FormatDue(t.Due, today))
}

// Added confirms a new task.
func Added(t models.Task, today datex.Date) string {
	if !t.HasDue() {
		return fmt.Sprintf("Task added: **%s** (ID: %d)", t.Name, t.ID)
	}
	return fmt.Sprintf("Task added: **%s** (%s) (ID: %d)", t.Name, FormatDue(t.Due, today), t.ID)
}

// Top is the short "upcoming" listing.
func Top(tasks []models.Task, today datex.Date) string {
	if len(tasks) == 0 {
		return "No upcoming tasks found."
	}
	var b strings.Builder
	b.WriteString("**Upcoming Tasks:**\n")
	for _, t := range tasks {
		b.WriteString(TaskLine(t, today))
		b.WriteByte('\n')
	}
	return b.String()
}

// All renders the full listing split into messages of at most limit bytes.
func All(tasks []models.Task, today datex.Date, limit int) []string {
	if len(tasks) == 0 {
		return []string{"No tasks found."}
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = TaskLine(t, today) + "\n"
	}
	return Chunk("**All Tasks:**\n", lines, limit)
}

// Chunk packs header and lines into messages no longer than limit. Lines are
// never split; a single line longer than limit gets a message of its own.
// The header always travels with the first line.
func Chunk(header string, lines []string, limit int) []string {
	var (
		out []string
		cur strings.Builder
		n   int
	)
	cur.WriteString(header)
	for _, line := range lines {
		if n > 0 && cur.Len()+len(line) > limit {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
		cur.WriteString(line)
		n++
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// NoFocus is the reply when there is nothing to pick.
const NoFocus = "No tasks available! Good job."

// Focus explains why t was picked.
func Focus(t models.Task, today datex.Date) string {
	var reason string
	switch {
	case !t.HasDue():
		reason = "from your backlog"
	case !t.Due.After(today):
		reason = "due today (or overdue)"
	default:
		reason = fmt.Sprintf("due on %s", t.Due)
	}
	return fmt.Sprintf("**Focus Task:** [ID: %d] %s (%s)", t.ID, t.Name, reason)
}

// Completed summarizes a complete-task call.
func Completed(succeeded, notFound []int64) string {
	var parts []string
	if len(succeeded) > 0 {
		parts = append(parts, "Completed: "+joinIDs(succeeded)+".")
	}
	if len(notFound) > 0 {
		parts = append(parts, "Not found: "+joinIDs(notFound)+".")
	}
	if len(parts) == 0 {
		return "Nothing to complete."
	}
	return strings.Join(parts, " ")
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmt.Sprint(id)
	}
	return strings.Join(s, ", ")
}

// Notification renders a reminder or startup summary.
func Notification(kind models.NotificationKind, startup bool, tasks []models.Task, today datex.Date) string {
	prefix := "Daily Reminder! "
	if startup {
		prefix = "I am online! "
	}

	var header string
	switch kind {
	case models.NotifyDueToday:
		header = "**" + prefix + "Here are the tasks due today:**\n"
	case models.NotifyUpcoming:
		header = "**" + prefix + "No tasks due today. Here are your upcoming tasks:**\n"
	default:
		if startup {
			return "**" + prefix + "No tasks found at all.**"
		}
		return "**" + prefix + "No tasks due today!**"
	}

	var b strings.Builder
	b.WriteString(header)
	for _, t := range tasks {
		b.WriteString(TaskLine(t, today))
		b.WriteByte('\n')
	}
	return b.String()
}

// Assignment is the message the recipient sees for a new proposal.
func Assignment(a models.Assignment, today datex.Date) string {
	return fmt.Sprintf("%s wants to give you a task: **%s** (%s). Reply `accept %s` or `decline %s`.",
		a.Giver, a.Name, FormatDue(a.Due, today), a.ID, a.ID)
}
