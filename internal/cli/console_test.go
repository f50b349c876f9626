package cli

import (
	"bufio"
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/repositories/state"
	"github.com/dmitrijs2005/todobot/internal/services"
	"github.com/dmitrijs2005/todobot/internal/store"
)

func newConsole(t *testing.T) *Console {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	repo := state.NewMemoryRepository()
	s := store.New(repo, store.WithClock(now))
	tzs := services.NewTimezoneService(s, time.UTC, nil)
	ts := services.NewTaskService(s, tzs, now, rand.New(rand.NewPCG(1, 1)))
	as := services.NewAssignmentService(repo, s, tzs, nil, services.AssignmentConfig{Secret: []byte("k")}, nil, now)
	return NewConsole("alice", ts, tzs, as)
}

func script(t *testing.T, c *Console, lines ...string) []string {
	t.Helper()
	out := silence(t)
	runREPL(context.Background(), c, false, bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n"))))
	return *out
}

func TestConsole_TaskFlow(t *testing.T) {
	c := newConsole(t)

	out := script(t, c,
		"add Buy milk -d 1",
		"add Pay rent -d 2024-02-30",
		"add Walk dog",
		"complete 1,5",
		"complete x",
		"tasks",
		"gettask",
	)

	require.Len(t, out, 7)
	assert.Equal(t, "Task added: **Buy milk** (Tomorrow) (ID: 1)", out[0])
	assert.Contains(t, out[1], "Invalid date format")
	assert.Equal(t, "Task added: **Walk dog** (No due date) (ID: 2)", out[2])
	assert.Equal(t, "Completed: 1. Not found: 5.", out[3])
	assert.Contains(t, out[4], "Invalid task ID")
	assert.Equal(t, "**Upcoming Tasks:**\n- [ID: 2] Walk dog (No due date)", out[5])
	assert.Equal(t, "**Focus Task:** [ID: 2] Walk dog (from your backlog)", out[6])
}

func TestConsole_GetTaskOnEmptyList(t *testing.T) {
	c := newConsole(t)

	out := script(t, c, "gettask")

	require.Len(t, out, 1)
	assert.Equal(t, "No tasks available! Good job.", out[0])
}

func TestConsole_GiveAndAccept(t *testing.T) {
	c := newConsole(t)

	out := script(t, c,
		"give alice Self",
		"give bob Write report -d 2",
		"user bob",
		"pending",
	)
	require.Len(t, out, 4)
	assert.Equal(t, "You cannot give a task to yourself.", out[0])
	assert.Contains(t, out[1], "Offered **Write report** to bob")
	assert.Contains(t, out[3], "alice wants to give you a task: **Write report** (In 2 days)")

	pending := c.assignments.Pending(context.Background(), "bob")
	require.Len(t, pending, 1)

	out = script(t, c, "accept "+pending[0].ID, "accept "+pending[0].ID, "tasks")
	require.Len(t, out, 3)
	assert.Equal(t, "Task added: **Write report** (In 2 days) (ID: 1)", out[0])
	assert.Equal(t, "That assignment was already answered.", out[1])
	assert.Contains(t, out[2], "Write report")
}

func TestConsole_Timezone(t *testing.T) {
	c := newConsole(t)

	out := script(t, c, "timezone PST", "timezone nowhere")
	require.Len(t, out, 2)
	assert.Equal(t, "Your timezone has been set to US/Pacific.", out[0])
	assert.Contains(t, out[1], "Invalid timezone")
}
