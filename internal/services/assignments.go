package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todobot/internal/auth"
	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/delivery"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/render"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
	"github.com/dmitrijs2005/todobot/internal/schedule"
	"github.com/dmitrijs2005/todobot/internal/store"
)

type AssignmentConfig struct {
	// Secret signs decision tokens (HS256).
	Secret []byte
	// TTL is how long a proposal stays open; 0 keeps it open forever.
	TTL time.Duration
}

// AssignmentService runs the give/accept/decline handshake. A proposal
// only turns into a task, in the recipient's list, on accept.
type AssignmentService struct {
	mu    sync.Mutex
	items map[string]*models.Assignment

	repo  state.Repository
	store *store.Store
	tz    *TimezoneService
	queue delivery.Queue
	cfg   AssignmentConfig
	log   logging.Logger

	now   func() time.Time
	newID func() string
}

func NewAssignmentService(repo state.Repository, s *store.Store, tz *TimezoneService, queue delivery.Queue,
	cfg AssignmentConfig, log logging.Logger, now func() time.Time) *AssignmentService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Nop()
	}
	return &AssignmentService{
		items: make(map[string]*models.Assignment),
		repo:  repo,
		store: s,
		tz:    tz,
		queue: queue,
		cfg:   cfg,
		log:   log.With("module", "assignments"),
		now:   now,
		newID: uuid.NewString,
	}
}

// Load restores persisted assignments.
func (s *AssignmentService) Load(ctx context.Context) error {
	list, err := s.repo.LoadAssignments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*models.Assignment, len(list))
	for _, a := range list {
		s.items[a.ID] = a
	}
	return nil
}

// Give creates a pending proposal and returns it with its decision token.
// The due date is read relative to the giver's today.
func (s *AssignmentService) Give(ctx context.Context, giver, recipient, name, dateInput string) (models.Assignment, string, error) {
	recipient = strings.TrimSpace(recipient)
	name = strings.TrimSpace(name)
	switch {
	case recipient == "":
		return models.Assignment{}, "", fmt.Errorf("recipient: %w", common.ErrNotFound)
	case recipient == giver:
		return models.Assignment{}, "", common.ErrSelfAssignment
	case name == "":
		return models.Assignment{}, "", common.ErrEmptyName
	}

	now := s.now()
	due, err := schedule.ParseDue(dateInput, datex.Today(now, s.tz.Get(ctx, giver)))
	if err != nil {
		return models.Assignment{}, "", err
	}

	a := &models.Assignment{
		ID:        s.newID(),
		Giver:     giver,
		Recipient: recipient,
		Name:      name,
		Due:       due,
		Status:    models.AssignmentPending,
		CreatedAt: now.UTC(),
	}
	if s.cfg.TTL > 0 {
		a.ExpiresAt = now.Add(s.cfg.TTL).UTC()
	}

	token, err := auth.GenerateToken(a.ID, recipient, s.cfg.Secret, now, s.cfg.TTL)
	if err != nil {
		return models.Assignment{}, "", err
	}
	if err := s.repo.SaveAssignment(ctx, a); err != nil {
		return models.Assignment{}, "", fmt.Errorf("failed to persist assignment: %w", err)
	}

	s.mu.Lock()
	s.items[a.ID] = a
	s.mu.Unlock()

	s.log.Info(ctx, "assignment created", "id", a.ID, "giver", giver, "recipient", recipient)
	s.notify(ctx, recipient, models.NotifyAssignment, render.Assignment(*a, datex.Today(now, s.tz.Get(ctx, recipient))))
	return *a, token, nil
}

// Accept adds the proposed task to the actor's list.
func (s *AssignmentService) Accept(ctx context.Context, actor, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.open(ctx, actor, id)
	if err != nil {
		return models.Task{}, err
	}

	task, err := s.store.Add(ctx, a.Recipient, a.Name, a.Due, a.Giver)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.setStatus(ctx, a, models.AssignmentAccepted); err != nil {
		// The proposal stays pending, so the task must go too.
		if rmErr := s.store.Remove(ctx, a.Recipient, task.ID); rmErr != nil {
			s.log.Error(ctx, "failed to roll back accepted task", "id", a.ID, "task", task.ID, "error", rmErr)
		}
		return models.Task{}, err
	}

	s.notify(ctx, a.Giver, models.NotifyAssignmentResult,
		fmt.Sprintf("%s accepted your task **%s** (ID: %d in their list).", a.Recipient, a.Name, task.ID))
	return task, nil
}

// Decline closes the proposal without touching any task list.
func (s *AssignmentService) Decline(ctx context.Context, actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.open(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, a, models.AssignmentDeclined); err != nil {
		return err
	}
	s.notify(ctx, a.Giver, models.NotifyAssignmentResult,
		fmt.Sprintf("%s declined your task **%s**.", a.Recipient, a.Name))
	return nil
}

// Decide accepts or declines through a decision token. An expired token
// expires the proposal it names.
func (s *AssignmentService) Decide(ctx context.Context, actor, token string, accept bool) (models.Assignment, *models.Task, error) {
	claims, err := auth.ParseToken(token, s.cfg.Secret, s.now())
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) && claims != nil {
			s.expire(ctx, claims.AssignmentID)
			return models.Assignment{}, nil, common.ErrAssignmentExpired
		}
		return models.Assignment{}, nil, err
	}
	if claims.Recipient != actor {
		return models.Assignment{}, nil, common.ErrNotRecipient
	}

	var task *models.Task
	if accept {
		t, err := s.Accept(ctx, actor, claims.AssignmentID)
		if err != nil {
			return models.Assignment{}, nil, err
		}
		task = &t
	} else if err := s.Decline(ctx, actor, claims.AssignmentID); err != nil {
		return models.Assignment{}, nil, err
	}

	a, _ := s.Get(claims.AssignmentID)
	return a, task, nil
}

// Pending lists open proposals addressed to userID, oldest first.
func (s *AssignmentService) Pending(ctx context.Context, userID string) []models.Assignment {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Assignment
	for _, a := range s.items {
		if a.Recipient == userID && a.Status == models.AssignmentPending && !a.ExpiredAt(now) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *AssignmentService) Get(id string) (models.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return models.Assignment{}, false
	}
	return *a, true
}

// ExpireStale marks every pending proposal past its deadline as expired
// and returns how many changed.
func (s *AssignmentService) ExpireStale(ctx context.Context) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.items {
		if a.Status == models.AssignmentPending && a.ExpiredAt(now) {
			if err := s.setStatus(ctx, a, models.AssignmentExpired); err != nil {
				s.log.Warn(ctx, "failed to expire assignment", "id", a.ID, "error", err)
				continue
			}
			n++
		}
	}
	return n
}

// open returns the pending assignment id if actor may decide on it. Must
// be called with s.mu held.
func (s *AssignmentService) open(ctx context.Context, actor, id string) (*models.Assignment, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", id, common.ErrNotFound)
	}
	if a.Recipient != actor {
		return nil, common.ErrNotRecipient
	}
	if a.Status != models.AssignmentPending {
		if a.Status == models.AssignmentExpired {
			return nil, common.ErrAssignmentExpired
		}
		return nil, fmt.Errorf("assignment %s is %s: %w", id, a.Status, common.ErrAssignmentClosed)
	}
	if a.ExpiredAt(s.now()) {
		if err := s.setStatus(ctx, a, models.AssignmentExpired); err != nil {
			s.log.Warn(ctx, "failed to expire assignment", "id", a.ID, "error", err)
		}
		return nil, common.ErrAssignmentExpired
	}
	return a, nil
}

func (s *AssignmentService) expire(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.items[id]; ok && a.Status == models.AssignmentPending {
		if err := s.setStatus(ctx, a, models.AssignmentExpired); err != nil {
			s.log.Warn(ctx, "failed to expire assignment", "id", id, "error", err)
		}
	}
}

// setStatus persists the new status, keeping the old one on failure. Must
// be called with s.mu held.
func (s *AssignmentService) setStatus(ctx context.Context, a *models.Assignment, status models.AssignmentStatus) error {
	prev := a.Status
	a.Status = status
	if err := s.repo.SaveAssignment(ctx, a); err != nil {
		a.Status = prev
		return fmt.Errorf("failed to persist assignment: %w", err)
	}
	return nil
}

// notify is best effort; a full queue never fails the command.
func (s *AssignmentService) notify(ctx context.Context, userID string, kind models.NotificationKind, text string) {
	if s.queue == nil {
		return
	}
	n := models.Notification{
		ID:      s.newID(),
		UserID:  userID,
		Kind:    kind,
		Text:    text,
		Created: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, n); err != nil {
		s.log.Warn(ctx, "could not queue notification", "user", userID, "kind", kind, "error", err)
	}
}
