// Package delivery moves notifications from the reminder scheduler to the
// user's direct messages. The scheduler only enqueues; workers behind the
// queue call the Sender and retry failures with backoff, so one slow or
// failing user never holds up the others.
package delivery

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// ErrQueueFull is returned by Enqueue when the local buffer has no room.
var ErrQueueFull = errors.New("notification queue full")

// Sender delivers one notification to its user.
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

type SenderFunc func(ctx context.Context, n models.Notification) error

func (f SenderFunc) Send(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}

// Queue accepts notifications for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, n models.Notification) error
}

// RetryPolicy controls how often a failed Send is repeated.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// deliverer is the retry loop shared by the local workers and the Kafka
// consumer.
type deliverer struct {
	sender  Sender
	policy  RetryPolicy
	log     logging.Logger
	metrics metrics.Metrics
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func newDeliverer(sender Sender, policy RetryPolicy, log logging.Logger, m metrics.Metrics) *deliverer {
	if log == nil {
		log = logging.Nop()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &deliverer{
		sender:  sender,
		policy:  policy,
		log:     log,
		metrics: m,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func (d *deliverer) deliver(ctx context.Context, n models.Notification) error {
	var err error
	pending := d.sender
	for attempt := 0; ; attempt++ {
		if pending, err = sendOnce(ctx, pending, n); err == nil {
			if !n.Created.IsZero() {
				d.metrics.NotificationDelivered(d.now().Sub(n.Created))
			} else {
				d.metrics.NotificationDelivered(0)
			}
			return nil
		}
		if attempt >= d.policy.MaxRetries || ctx.Err() != nil {
			break
		}

		wait := calculateBackoff(attempt+1, d.policy.BaseDelay, d.policy.MaxDelay)
		d.log.Warn(ctx, "delivery failed, retrying",
			"user", n.UserID, "notification", n.ID, "attempt", attempt+1, "wait", wait, "error", err)
		d.metrics.NotificationRetried()
		if serr := d.sleep(ctx, wait); serr != nil {
			break
		}
	}

	d.metrics.NotificationFailed()
	d.log.Error(ctx, "delivery gave up", "user", n.UserID, "notification", n.ID, "error", err)
	return err
}

// sendOnce returns what is left to retry after one attempt.
func sendOnce(ctx context.Context, s Sender, n models.Notification) (Sender, error) {
	if f, ok := s.(Fanout); ok {
		failed, err := f.sendAll(ctx, n)
		return failed, err
	}
	return s, s.Send(ctx, n)
}

// calculateBackoff returns a full-jitter exponential delay: a random value
// in [0, base*2^retry), capped at maxDelay when maxDelay > 0.
func calculateBackoff(retryCount int, baseDelay, maxDelay time.Duration) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(retryCount)))
	delay = time.Duration(rand.Float64() * float64(delay))
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
