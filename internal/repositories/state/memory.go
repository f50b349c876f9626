package state

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/todobot/internal/models"
)

// MemoryRepository keeps copies in process memory. State is lost on exit;
// it backs the "memory" driver and tests.
type MemoryRepository struct {
	mu          sync.Mutex
	users       map[string]*models.UserState
	assignments map[string]models.Assignment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[string]*models.UserState),
		assignments: make(map[string]models.Assignment),
	}
}

func (r *MemoryRepository) LoadUsers(ctx context.Context) ([]*models.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.UserState, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *MemoryRepository) SaveUser(ctx context.Context, u *models.UserState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.users[u.UserID] = u.Clone()
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) LoadAssignments(ctx context.Context) ([]*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) SaveAssignment(ctx context.Context, a *models.Assignment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.assignments[a.ID] = *a
	r.mu.Unlock()
	return nil
}
