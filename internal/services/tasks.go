package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/schedule"
	"github.com/dmitrijs2005/todobot/internal/store"
)

// TaskService implements the task commands. Every read that shows due
// dates rolls overdue tasks forward first.
type TaskService struct {
	store *store.Store
	tz    *TimezoneService
	now   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewTaskService(s *store.Store, tz *TimezoneService, now func() time.Time, rnd *rand.Rand) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{store: s, tz: tz, now: now, rnd: rnd}
}

// Today is the user's current local calendar day.
func (s *TaskService) Today(ctx context.Context, userID string) datex.Date {
	return datex.Today(s.now(), s.tz.Get(ctx, userID))
}

// AddTask creates a task. dateInput may be empty, YYYY-MM-DD or a number of
// days from the user's today.
func (s *TaskService) AddTask(ctx context.Context, userID, name, dateInput string) (models.Task, error) {
	if strings.TrimSpace(name) == "" {
		return models.Task{}, common.ErrEmptyName
	}
	due, err := schedule.ParseDue(dateInput, s.Today(ctx, userID))
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Add(ctx, userID, name, due, "")
}

// ParseIDs reads a comma or space separated list of task IDs.
func ParseIDs(input string) ([]int64, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no ids given", common.ErrInvalidTaskID)
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("%w: %q", common.ErrInvalidTaskID, f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CompleteFromInput parses "1,2,5" style input and completes those tasks.
// A malformed token rejects the whole command before anything changes.
func (s *TaskService) CompleteFromInput(ctx context.Context, userID, input string) (store.CompleteResult, error) {
	ids, err := ParseIDs(input)
	if err != nil {
		return store.CompleteResult{}, err
	}
	return s.Complete(ctx, userID, ids)
}

func (s *TaskService) Complete(ctx context.Context, userID string, ids []int64) (store.CompleteResult, error) {
	return s.store.Complete(ctx, userID, ids)
}

// rolled runs fn on the user's state after rollover, under the user's lock.
func (s *TaskService) rolled(ctx context.Context, userID string, fn func(u *models.UserState, today datex.Date)) error {
	return s.store.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		today := datex.Today(s.now(), s.tz.LocationOf(u.Timezone))
		n := schedule.Rollover(u.Tasks, today)
		fn(u, today)
		return n > 0, nil
	})
}

// Top returns up to common.TopTasksLimit open tasks and the user's today.
func (s *TaskService) Top(ctx context.Context, userID string) ([]models.Task, datex.Date, error) {
	var (
		out   []models.Task
		today datex.Date
	)
	err := s.rolled(ctx, userID, func(u *models.UserState, t datex.Date) {
		out, today = schedule.Top(u.Tasks, common.TopTasksLimit), t
	})
	return out, today, err
}

// All returns every open task in display order.
func (s *TaskService) All(ctx context.Context, userID string) ([]models.Task, datex.Date, error) {
	var (
		out   []models.Task
		today datex.Date
	)
	err := s.rolled(ctx, userID, func(u *models.UserState, t datex.Date) {
		out, today = schedule.All(u.Tasks), t
	})
	return out, today, err
}

// Focus picks one task to work on; common.ErrNoTasks when nothing is open.
func (s *TaskService) Focus(ctx context.Context, userID string) (models.Task, datex.Date, error) {
	var (
		task     models.Task
		today    datex.Date
		focusErr error
	)
	err := s.rolled(ctx, userID, func(u *models.UserState, t datex.Date) {
		today = t
		s.rndMu.Lock()
		task, focusErr = schedule.Focus(u.Tasks, t, s.rnd)
		s.rndMu.Unlock()
	})
	if err != nil {
		return models.Task{}, today, err
	}
	return task, today, focusErr
}

func (s *TaskService) Remove(ctx context.Context, userID string, id int64) error {
	return s.store.Remove(ctx, userID, id)
}

func (s *TaskService) Purge(ctx context.Context, userID string) (int, error) {
	return s.store.Purge(ctx, userID)
}
