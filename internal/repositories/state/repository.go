// Package state persists per-user task lists and pending assignments.
//
// The store keeps everything in memory and calls SaveUser after each
// mutation; LoadUsers and LoadAssignments are only used at startup.
package state

import (
	"context"

	"github.com/dmitrijs2005/todobot/internal/models"
)

type Repository interface {
	// LoadUsers returns every stored user with its tasks in ID order.
	LoadUsers(ctx context.Context) ([]*models.UserState, error)
	// SaveUser replaces the stored copy of one user atomically.
	SaveUser(ctx context.Context, u *models.UserState) error
	LoadAssignments(ctx context.Context) ([]*models.Assignment, error)
	// SaveAssignment inserts or updates one assignment by ID.
	SaveAssignment(ctx context.Context, a *models.Assignment) error
}
