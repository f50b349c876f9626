package schedule

import (
	"math/rand/v2"
	"slices"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// Compare orders tasks by due date, undated tasks last, then by ID.
func Compare(a, b models.Task) int {
	switch {
	case a.HasDue() && b.HasDue():
		if c := a.Due.Compare(*b.Due); c != 0 {
			return c
		}
	case a.HasDue():
		return -1
	case b.HasDue():
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Sort returns a sorted copy of tasks. The input is left untouched.
func Sort(tasks []models.Task) []models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, Compare)
	return out
}

// All returns the incomplete tasks in display order.
func All(tasks []models.Task) []models.Task {
	open := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	slices.SortStableFunc(open, Compare)
	return open
}

// Top returns at most k incomplete tasks in display order.
func Top(tasks []models.Task, k int) []models.Task {
	all := All(tasks)
	if k < 0 {
		k = 0
	}
	if len(all) > k {
		all = all[:k]
	}
	return all
}

// DueOn returns the incomplete tasks due exactly on day, sorted.
func DueOn(tasks []models.Task, day datex.Date) []models.Task {
	var out []models.Task
	for _, t := range All(tasks) {
		if t.HasDue() && t.Due.Equal(day) {
			out = append(out, t)
		}
	}
	return out
}

// Focus picks one task to work on. Tasks due today (or overdue, when the
// caller skipped Rollover) win; with none of those any incomplete task may be
// chosen. A nil rnd uses the global source.
func Focus(tasks []models.Task, today datex.Date, rnd *rand.Rand) (models.Task, error) {
	var pool []models.Task
	for _, t := range All(tasks) {
		if t.HasDue() && !t.Due.After(today) {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = All(tasks)
	}
	if len(pool) == 0 {
		return models.Task{}, common.ErrNoTasks
	}
	if rnd == nil {
		return pool[rand.IntN(len(pool))], nil
	}
	return pool[rnd.IntN(len(pool))], nil
}
