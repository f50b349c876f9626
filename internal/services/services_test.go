package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
	"github.com/dmitrijs2005/todobot/internal/store"
)

// recordingQueue keeps everything it is given.
type recordingQueue struct {
	mu    sync.Mutex
	items []models.Notification
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, n models.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, n)
	return nil
}

func (q *recordingQueue) sent() []models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Notification(nil), q.items...)
}

// fixture wires the services on a memory repository with a movable clock.
type fixture struct {
	repo  *state.MemoryRepository
	store *store.Store
	tz    *TimezoneService
	tasks *TaskService
	clock time.Time
}

func (f *fixture) now() time.Time { return f.clock }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  state.NewMemoryRepository(),
		clock: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	f.store = store.New(f.repo, store.WithClock(f.now))
	require.NoError(t, f.store.Load(context.Background()))
	f.tz = NewTimezoneService(f.store, time.UTC, nil)
	f.tasks = NewTaskService(f.store, f.tz, f.now, rand.New(rand.NewPCG(1, 2)))
	return f
}
