package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/models"
)

var today = datex.MustParse("2024-01-10")

func d(s string) *datex.Date { return datex.MustParse(s).Ptr() }

func TestFormatDue(t *testing.T) {
	assert.Equal(t, "No due date", FormatDue(nil, today))
	assert.Equal(t, "Today", FormatDue(d("2024-01-10"), today))
	assert.Equal(t, "Tomorrow", FormatDue(d("2024-01-11"), today))
	assert.Equal(t, "In 2 days", FormatDue(d("2024-01-12"), today))
	assert.Equal(t, "Due: 2024-01-13", FormatDue(d("2024-01-13"), today))
	assert.Equal(t, "Overdue (2024-01-09)", FormatDue(d("2024-01-09"), today))
}

func TestTaskLineAndAdded(t *testing.T) {
	task := models.Task{ID: 3, Name: "Buy milk", Due: d("2024-01-11")}
	assert.Equal(t, "- [ID: 3] Buy milk (Tomorrow)", TaskLine(task, today))
	assert.Equal(t, "Task added: **Buy milk** (Tomorrow) (ID: 3)", Added(task, today))
	assert.Equal(t, "Task added: **x** (ID: 4)", Added(models.Task{ID: 4, Name: "x"}, today))
}

func TestTopEmpty(t *testing.T) {
	assert.Equal(t, "No upcoming tasks found.", Top(nil, today))
}

func TestAll_ChunksAtLimit(t *testing.T) {
	var tasks []models.Task
	for i := 1; i <= 100; i++ {
		tasks = append(tasks, models.Task{ID: int64(i), Name: strings.Repeat("x", 40)})
	}

	msgs := All(tasks, today, 1900)
	require.Greater(t, len(msgs), 1)
	assert.True(t, strings.HasPrefix(msgs[0], "**All Tasks:**\n"))

	total := 0
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m), 1900)
		total += strings.Count(m, "- [ID: ")
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, []string{"No tasks found."}, All(nil, today, 1900))
}

func TestChunk_LongLineStandsAlone(t *testing.T) {
	long := strings.Repeat("y", 30) + "\n"
	got := Chunk("H\n", []string{"a\n", long, "b\n"}, 10)
	assert.Equal(t, []string{"H\na\n", long, "b\n"}, got)
}

func TestChunk_HeaderNeverSentAlone(t *testing.T) {
	long := strings.Repeat("y", 30) + "\n"
	got := Chunk("H\n", []string{long, "b\n"}, 10)
	assert.Equal(t, []string{"H\n" + long, "b\n"}, got)
}

func TestFocus(t *testing.T) {
	assert.Equal(t, "**Focus Task:** [ID: 1] a (due today (or overdue))",
		Focus(models.Task{ID: 1, Name: "a", Due: d("2024-01-10")}, today))
	assert.Equal(t, "**Focus Task:** [ID: 2] b (due on 2024-01-15)",
		Focus(models.Task{ID: 2, Name: "b", Due: d("2024-01-15")}, today))
	assert.Equal(t, "**Focus Task:** [ID: 3] c (from your backlog)",
		Focus(models.Task{ID: 3, Name: "c"}, today))
}

func TestCompleted(t *testing.T) {
	assert.Equal(t, "Completed: 1, 2. Not found: 5.", Completed([]int64{1, 2}, []int64{5}))
	assert.Equal(t, "Nothing to complete.", Completed(nil, nil))
}

func TestNotification(t *testing.T) {
	tasks := []models.Task{{ID: 1, Name: "Pay rent", Due: d("2024-01-10")}}

	assert.Equal(t, "**Daily Reminder! Here are the tasks due today:**\n- [ID: 1] Pay rent (Today)\n",
		Notification(models.NotifyDueToday, false, tasks, today))
	assert.Equal(t, "**I am online! No tasks due today. Here are your upcoming tasks:**\n- [ID: 1] Pay rent (Today)\n",
		Notification(models.NotifyUpcoming, true, tasks, today))
	assert.Equal(t, "**Daily Reminder! No tasks due today!**", Notification(models.NotifyEmpty, false, nil, today))
	assert.Equal(t, "**I am online! No tasks found at all.**", Notification(models.NotifyEmpty, true, nil, today))
}
