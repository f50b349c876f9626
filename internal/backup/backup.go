// Package backup periodically writes a JSON snapshot of all persisted state
// to an object store (S3 or MinIO) or a local directory.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/repositories/state"
)

// Uploader stores one snapshot object under key.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte) error
}

type Snapshot struct {
	TakenAt     time.Time            `json:"taken_at"`
	Users       []*models.UserState  `json:"users"`
	Assignments []*models.Assignment `json:"assignments"`
}

type Backup struct {
	repo  state.Repository
	up    Uploader
	log   logging.Logger
	now   func() time.Time
	newID func() uuid.UUID
}

func New(repo state.Repository, up Uploader, log logging.Logger) *Backup {
	if log == nil {
		log = logging.Nop()
	}
	return &Backup{repo: repo, up: up, log: log.With("module", "backup"), now: time.Now, newID: uuid.New}
}

// SnapshotKey spreads snapshots over date prefixes.
func SnapshotKey(t time.Time, id uuid.UUID) string {
	return fmt.Sprintf("snapshots/%d/%d/%d/%v.json", t.Year(), t.Month(), t.Day(), id)
}

// Take writes one snapshot and returns its key.
func (b *Backup) Take(ctx context.Context) (string, error) {
	users, err := b.repo.LoadUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("load users: %w", err)
	}
	assignments, err := b.repo.LoadAssignments(ctx)
	if err != nil {
		return "", fmt.Errorf("load assignments: %w", err)
	}

	now := b.now().UTC()
	body, err := json.Marshal(Snapshot{TakenAt: now, Users: users, Assignments: assignments})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := SnapshotKey(now, b.newID())
	if err := b.up.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	b.log.Info(ctx, "snapshot written", "key", key, "users", len(users), "bytes", len(body))
	return key, nil
}

// Run takes a snapshot every interval until ctx is cancelled. Failures are
// logged; the next tick tries again. A non-positive interval means hourly.
func (b *Backup) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Take(ctx); err != nil {
				b.log.Error(ctx, "snapshot failed", "error", err)
			}
		}
	}
}
