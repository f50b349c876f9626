package delivery

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// LocalQueue is an in-process queue: a buffered channel drained by a fixed
// pool of workers.
type LocalQueue struct {
	ch      chan models.Notification
	workers int
	d       *deliverer
}

func NewLocalQueue(sender Sender, workers, buffer int, policy RetryPolicy, log logging.Logger, m metrics.Metrics) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &LocalQueue{
		ch:      make(chan models.Notification, buffer),
		workers: workers,
		d:       newDeliverer(sender, policy, log.With("module", "delivery"), m),
	}
}

// Enqueue never blocks; a full buffer yields ErrQueueFull.
func (q *LocalQueue) Enqueue(ctx context.Context, n models.Notification) error {
	select {
	case q.ch <- n:
		q.d.metrics.NotificationEnqueued()
		return nil
	default:
		return ErrQueueFull
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has returned. Notifications still buffered at that point are dropped.
func (q *LocalQueue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.work(ctx, id)
		}(i)
	}
	wg.Wait()

	if left := len(q.ch); left > 0 {
		q.d.log.Warn(context.Background(), "queue stopped with undelivered notifications", "count", left)
	}
}

func (q *LocalQueue) work(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-q.ch:
			if err := q.d.deliver(ctx, n); err != nil {
				q.d.log.Debug(ctx, "worker dropped notification", "worker", id, "notification", n.ID)
			}
		}
	}
}
