package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// mockSender fails the first failN calls for each notification ID.
type mockSender struct {
	mu    sync.Mutex
	failN int
	calls map[string]int
	sent  []models.Notification
}

func newMockSender(failN int) *mockSender {
	return &mockSender{failN: failN, calls: map[string]int{}}
}

func (m *mockSender) Send(_ context.Context, n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[n.ID]++
	if m.calls[n.ID] <= m.failN {
		return errors.New("dm unavailable")
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockSender) sentIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sent))
	for _, n := range m.sent {
		ids = append(ids, n.ID)
	}
	return ids
}

// countingMetrics records delivery counters.
type countingMetrics struct {
	metrics.Nop
	mu                                   sync.Mutex
	enqueued, delivered, retried, failed int
}

func (c *countingMetrics) NotificationEnqueued() { c.mu.Lock(); c.enqueued++; c.mu.Unlock() }
func (c *countingMetrics) NotificationDelivered(time.Duration) {
	c.mu.Lock()
	c.delivered++
	c.mu.Unlock()
}
func (c *countingMetrics) NotificationRetried() { c.mu.Lock(); c.retried++; c.mu.Unlock() }
func (c *countingMetrics) NotificationFailed()  { c.mu.Lock(); c.failed++; c.mu.Unlock() }

func noSleep(context.Context, time.Duration) error { return nil }

func TestCalculateBackoff(t *testing.T) {
	for retry := 0; retry < 10; retry++ {
		d := calculateBackoff(retry, 100*time.Millisecond, time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.Zero(t, calculateBackoff(3, 0, time.Second))
	assert.LessOrEqual(t, calculateBackoff(-1, time.Second, 0), time.Second)
}

func TestDeliver_RetriesThenSucceeds(t *testing.T) {
	sender := newMockSender(2)
	m := &countingMetrics{}
	d := newDeliverer(sender, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, logging.Nop(), m)
	d.sleep = noSleep

	require.NoError(t, d.deliver(context.Background(), models.Notification{ID: "n1", UserID: "u1"}))
	assert.Equal(t, 3, sender.calls["n1"])
	assert.Equal(t, 2, m.retried)
	assert.Equal(t, 1, m.delivered)
	assert.Zero(t, m.failed)
}

func TestDeliver_GivesUp(t *testing.T) {
	sender := newMockSender(100)
	m := &countingMetrics{}
	d := newDeliverer(sender, RetryPolicy{MaxRetries: 2}, logging.Nop(), m)
	d.sleep = noSleep

	err := d.deliver(context.Background(), models.Notification{ID: "n1"})
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls["n1"])
	assert.Equal(t, 1, m.failed)
}

func TestDeliver_StopsOnCancel(t *testing.T) {
	sender := newMockSender(100)
	d := newDeliverer(sender, RetryPolicy{MaxRetries: 10, BaseDelay: time.Hour}, logging.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, d.deliver(ctx, models.Notification{ID: "n1"}))
	assert.Equal(t, 1, sender.calls["n1"])
}

func TestLocalQueue_DeliversAll(t *testing.T) {
	sender := newMockSender(1)
	m := &countingMetrics{}
	q := NewLocalQueue(sender, 3, 16, RetryPolicy{MaxRetries: 2}, logging.Nop(), m)
	q.d.sleep = noSleep

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Enqueue(ctx, models.Notification{ID: id, UserID: "u-" + id}))
	}

	require.Eventually(t, func() bool { return len(sender.sentIDs()) == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, sender.sentIDs())
	assert.Equal(t, 5, m.enqueued)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLocalQueue_FullBufferDoesNotBlock(t *testing.T) {
	q := NewLocalQueue(newMockSender(0), 1, 1, DefaultRetryPolicy(), nil, nil)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.Notification{ID: "1"}))
	assert.ErrorIs(t, q.Enqueue(ctx, models.Notification{ID: "2"}), ErrQueueFull)
}

func TestLocalQueue_FailingUserDoesNotBlockOthers(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	sender := SenderFunc(func(ctx context.Context, n models.Notification) error {
		if n.UserID == "broken" {
			return errors.New("blocked by user")
		}
		mu.Lock()
		delivered = append(delivered, n.UserID)
		mu.Unlock()
		return nil
	})
	q := NewLocalQueue(sender, 1, 8, RetryPolicy{MaxRetries: 1}, nil, nil)
	q.d.sleep = noSleep

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	require.NoError(t, q.Enqueue(ctx, models.Notification{ID: "1", UserID: "broken"}))
	require.NoError(t, q.Enqueue(ctx, models.Notification{ID: "2", UserID: "ok"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInbox_KeepsMostRecent(t *testing.T) {
	b := NewInbox(2)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, b.Send(ctx, models.Notification{ID: id, UserID: "u1"}))
	}
	got := b.Messages("u1")
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Empty(t, b.Messages("nobody"))
}

func TestFanout_ReturnsFirstErrorButSendsAll(t *testing.T) {
	b := NewInbox(5)
	boom := errors.New("boom")
	f := Fanout{SenderFunc(func(context.Context, models.Notification) error { return boom }), b}

	err := f.Send(context.Background(), models.Notification{ID: "1", UserID: "u1"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.Messages("u1"), 1)
}

func TestDeliver_FanoutRetriesOnlyFailedSenders(t *testing.T) {
	inbox := NewInbox(5)
	flaky := newMockSender(2)
	d := newDeliverer(Fanout{inbox, flaky}, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, logging.Nop(), nil)
	d.sleep = noSleep

	require.NoError(t, d.deliver(context.Background(), models.Notification{ID: "n1", UserID: "u1"}))
	assert.Equal(t, 3, flaky.calls["n1"])
	assert.Len(t, inbox.Messages("u1"), 1)
}
