// Package store is the in-memory task arena. Each user's state has its own
// mutex; the user index has a separate short-lived lock, so work on one user
// never waits on another.
//
// Every mutation is written through to the state repository before the
// user's lock is released. If the write fails the in-memory state is put
// back the way it was and the error is returned.
package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
)

type entry struct {
	mu    sync.Mutex
	state *models.UserState
}

type Store struct {
	mu    sync.RWMutex
	users map[string]*entry

	repo state.Repository
	now  func() time.Time
	log  logging.Logger
}

type Option func(*Store)

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log logging.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(repo state.Repository, opts ...Option) *Store {
	s := &Store{
		users: make(map[string]*entry),
		repo:  repo,
		now:   time.Now,
		log:   logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "store")
	return s
}

// Load replaces the arena with the repository's snapshot.
func (s *Store) Load(ctx context.Context) error {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	m := make(map[string]*entry, len(users))
	for _, u := range users {
		if u.NextID < 1 {
			u.NextID = 1
		}
		m[u.UserID] = &entry{state: u}
	}

	s.mu.Lock()
	s.users = m
	s.mu.Unlock()

	s.log.Info(ctx, "state loaded", "users", len(users))
	return nil
}

func (s *Store) lookup(userID string, create bool) *entry {
	s.mu.RLock()
	e := s.users[userID]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.users[userID]; e == nil {
		e = &entry{state: models.NewUserState(userID)}
		s.users[userID] = e
	}
	return e
}

// Users returns the known user IDs in sorted order.
func (s *Store) Users() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Update runs fn on the user's state under the user's lock. fn reports
// whether it changed anything; changed state is persisted before Update
// returns. An error from fn or from the repository restores the state fn
// started from.
func (s *Store) Update(ctx context.Context, userID string, fn func(u *models.UserState) (bool, error)) error {
	e := s.lookup(userID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.state.Clone()
	changed, err := fn(e.state)
	if err != nil {
		e.state = before
		return err
	}
	if !changed {
		return nil
	}
	if err := s.repo.SaveUser(ctx, e.state); err != nil {
		e.state = before
		s.log.Error(ctx, "persist failed, state restored", "user", userID, "error", err)
		return fmt.Errorf("failed to persist user %s: %w", userID, err)
	}
	return nil
}

// View runs fn on a copy of the user's state. Unknown users see an empty
// state and are not added to the arena.
func (s *Store) View(ctx context.Context, userID string, fn func(u *models.UserState) error) error {
	e := s.lookup(userID, false)
	if e == nil {
		return fn(models.NewUserState(userID))
	}
	e.mu.Lock()
	snapshot := e.state.Clone()
	e.mu.Unlock()
	return fn(snapshot)
}

// Add appends a new task and returns it with its assigned ID.
func (s *Store) Add(ctx context.Context, userID, name string, due *datex.Date, assignerID string) (models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Task{}, common.ErrEmptyName
	}

	var task models.Task
	err := s.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		task = models.Task{
			ID:         u.NextID,
			Name:       name,
			CreatedAt:  s.now().UTC(),
			AssignerID: assignerID,
		}
		if due != nil && !due.IsZero() {
			task.Due = due.Ptr()
		}
		u.NextID++
		u.Tasks = append(u.Tasks, task)
		return true, nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// CompleteResult reports each requested ID once, in request order.
type CompleteResult struct {
	Succeeded []int64
	NotFound  []int64
}

// Complete flags the given tasks as done. IDs that do not exist or are
// already completed land in NotFound; that is never an error.
func (s *Store) Complete(ctx context.Context, userID string, ids []int64) (CompleteResult, error) {
	var res CompleteResult
	err := s.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		res = CompleteResult{}
		seen := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			i := u.IndexOf(id)
			if i < 0 || u.Tasks[i].Completed {
				res.NotFound = append(res.NotFound, id)
				continue
			}
			u.Tasks[i].Completed = true
			res.Succeeded = append(res.Succeeded, id)
		}
		return len(res.Succeeded) > 0, nil
	})
	if err != nil {
		return CompleteResult{}, err
	}
	return res, nil
}

// List returns every task of the user, completed ones included, in
// insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	err := s.View(ctx, userID, func(u *models.UserState) error {
		tasks = u.Tasks
		return nil
	})
	return tasks, err
}

// Remove deletes one task outright.
func (s *Store) Remove(ctx context.Context, userID string, id int64) error {
	return s.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		i := u.IndexOf(id)
		if i < 0 {
			return false, fmt.Errorf("task %d: %w", id, common.ErrNotFound)
		}
		u.Tasks = slices.Delete(u.Tasks, i, i+1)
		return true, nil
	})
}

// Purge deletes all completed tasks and returns how many went.
func (s *Store) Purge(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		before := len(u.Tasks)
		u.Tasks = slices.DeleteFunc(u.Tasks, func(t models.Task) bool { return t.Completed })
		n = before - len(u.Tasks)
		return n > 0, nil
	})
	return n, err
}
