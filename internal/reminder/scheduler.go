// Package reminder sends each user one summary per local day at the
// configured hour.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/datex"
	"github.com/dmitrijs2005/todobot/internal/delivery"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/render"
	"github.com/dmitrijs2005/todobot/internal/schedule"
	"github.com/dmitrijs2005/todobot/internal/store"
	"github.com/dmitrijs2005/todobot/internal/tz"
)

type Config struct {
	Hour         int
	Window       time.Duration
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{Hour: 8, Window: time.Minute, TickInterval: time.Minute}
}

type Scheduler struct {
	cfg     Config
	store   *store.Store
	queue   delivery.Queue
	log     logging.Logger
	metrics metrics.Metrics
	now     func() time.Time
	newID   func() string
}

func New(cfg Config, s *store.Store, q delivery.Queue, log logging.Logger, m metrics.Metrics) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	// A window shorter than one tick could fall between two ticks.
	if cfg.Window < cfg.TickInterval {
		cfg.Window = cfg.TickInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Scheduler{
		cfg:     cfg,
		store:   s,
		queue:   q,
		log:     log.With("module", "reminder"),
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.log.Info(ctx, "reminder scheduler started", "every", s.cfg.TickInterval.String(), "hour", s.cfg.Hour)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick checks every user with a timezone and returns how many reminders
// were queued. A failure for one user never stops the scan.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	start := time.Now()
	users := s.store.Users()
	fired := 0

	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		if s.remind(ctx, userID, now) {
			fired++
		}
	}

	s.metrics.TickCompleted(len(users), time.Since(start))
	return fired
}

func (s *Scheduler) remind(ctx context.Context, userID string, now time.Time) bool {
	var zone string
	_ = s.store.View(ctx, userID, func(u *models.UserState) error {
		zone = u.Timezone
		return nil
	})
	if zone == "" {
		return false
	}
	loc, _, err := tz.Resolve(zone)
	if err != nil {
		s.log.Warn(ctx, "skipping user with bad timezone", "user", userID, "timezone", zone)
		s.metrics.ReminderSkipped("bad_timezone")
		return false
	}

	local := now.In(loc)
	if !s.inWindow(local) {
		return false
	}
	today := datex.Of(local)

	var (
		n     models.Notification
		prev  *datex.Date
		fired bool
	)
	err = s.store.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		if u.LastNotified != nil && u.LastNotified.Equal(today) {
			return false, nil
		}
		schedule.Rollover(u.Tasks, today)
		n = s.build(userID, u.Tasks, today, false, now)
		prev = u.LastNotified
		u.LastNotified = today.Ptr()
		fired = true
		return true, nil
	})
	if err != nil {
		s.log.Error(ctx, "failed to record reminder", "user", userID, "error", err)
		s.metrics.PersistFailed()
		s.metrics.ReminderSkipped("persist")
		return false
	}
	if !fired {
		return false
	}

	if err := s.queue.Enqueue(ctx, n); err != nil {
		s.log.Error(ctx, "failed to queue reminder", "user", userID, "error", err)
		s.metrics.ReminderSkipped("enqueue")
		s.unmark(ctx, userID, today, prev)
		return false
	}
	s.metrics.ReminderFired(string(n.Kind))
	s.log.Debug(ctx, "reminder queued", "user", userID, "kind", n.Kind, "day", n.Day)
	return true
}

// unmark restores LastNotified after a failed enqueue so a later tick in
// the window can retry the same day.
func (s *Scheduler) unmark(ctx context.Context, userID string, today datex.Date, prev *datex.Date) {
	err := s.store.Update(ctx, userID, func(u *models.UserState) (bool, error) {
		if u.LastNotified == nil || !u.LastNotified.Equal(today) {
			return false, nil
		}
		u.LastNotified = prev
		return true, nil
	})
	if err != nil {
		s.log.Error(ctx, "failed to clear reminder mark", "user", userID, "error", err)
		s.metrics.PersistFailed()
	}
}

func (s *Scheduler) inWindow(local time.Time) bool {
	if local.Hour() != s.cfg.Hour {
		return false
	}
	sinceHour := time.Duration(local.Minute())*time.Minute + time.Duration(local.Second())*time.Second
	return sinceHour < s.cfg.Window
}

// SendStartupSummaries queues an "online" digest for every user with a
// timezone. LastNotified is not touched.
func (s *Scheduler) SendStartupSummaries(ctx context.Context) int {
	now := s.now()
	sent := 0
	for _, userID := range s.store.Users() {
		var (
			zone  string
			tasks []models.Task
		)
		_ = s.store.View(ctx, userID, func(u *models.UserState) error {
			zone, tasks = u.Timezone, u.Tasks
			return nil
		})
		if zone == "" {
			continue
		}
		loc, _, err := tz.Resolve(zone)
		if err != nil {
			s.log.Warn(ctx, "skipping user with bad timezone", "user", userID, "timezone", zone)
			continue
		}
		today := datex.Today(now, loc)
		schedule.Rollover(tasks, today)

		if err := s.queue.Enqueue(ctx, s.build(userID, tasks, today, true, now)); err != nil {
			s.log.Warn(ctx, "failed to queue startup summary", "user", userID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// build picks the payload: tasks due today, else the next few, else an
// empty-state message.
func (s *Scheduler) build(userID string, tasks []models.Task, today datex.Date, startup bool, now time.Time) models.Notification {
	kind := models.NotifyDueToday
	payload := schedule.DueOn(tasks, today)
	if len(payload) == 0 {
		kind = models.NotifyUpcoming
		payload = schedule.Top(tasks, common.TopTasksLimit)
	}
	if len(payload) == 0 {
		kind = models.NotifyEmpty
	}
	return models.Notification{
		ID:      s.newID(),
		UserID:  userID,
		Kind:    kind,
		Day:     today.String(),
		Startup: startup,
		Tasks:   payload,
		Text:    render.Notification(kind, startup, payload, today),
		Created: now.UTC(),
	}
}
