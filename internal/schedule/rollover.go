package schedule

import (
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// Rollover moves every incomplete task that is due before today onto today,
// in place. It returns how many tasks were changed; a second call on the same
// day returns 0.
func Rollover(tasks []models.Task, today datex.Date) int {
	n := 0
	for i := range tasks {
		t := &tasks[i]
		if t.Completed || !t.HasDue() {
			continue
		}
		if t.Due.Before(today) {
			t.Due = today.Ptr()
			n++
		}
	}
	return n
}
