package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/metrics"
	"github.com/dmitrijs2005/todobot/internal/models"
)

const (
	HeaderID   = "notification-id"
	HeaderKind = "notification-kind"
)

// Producer is the part of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Consumer is the part of *kgo.Client the worker needs.
type Consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// NewKafkaClient builds a client that both produces to and consumes from
// topic within group. Offsets are committed manually after delivery.
func NewKafkaClient(brokers []string, group, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.DisableAutoCommit(),
		kgo.FetchMaxWait(500*time.Millisecond),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// KafkaQueue publishes notifications to a topic. Records are keyed by user
// so one user's notifications stay in order.
type KafkaQueue struct {
	client  Producer
	metrics metrics.Metrics
}

func NewKafkaQueue(client Producer, m metrics.Metrics) *KafkaQueue {
	if m == nil {
		m = metrics.Nop{}
	}
	return &KafkaQueue{client: client, metrics: m}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, n models.Notification) error {
	rec, err := notificationToRec(n)
	if err != nil {
		return err
	}
	if err := q.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	q.metrics.NotificationEnqueued()
	return nil
}

func notificationToRec(n models.Notification) (*kgo.Record, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return &kgo.Record{
		Key:   []byte(n.UserID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderID, Value: []byte(n.ID)},
			{Key: HeaderKind, Value: []byte(n.Kind)},
		},
	}, nil
}

func recToNotification(rec *kgo.Record) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(rec.Value, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	if n.UserID == "" {
		n.UserID = string(rec.Key)
	}
	return n, nil
}

// KafkaWorker consumes the notification topic and delivers each record.
// Several workers may run in one consumer group.
type KafkaWorker struct {
	client Consumer
	d      *deliverer
}

func NewKafkaWorker(client Consumer, sender Sender, policy RetryPolicy, log logging.Logger, m metrics.Metrics) *KafkaWorker {
	if log == nil {
		log = logging.Nop()
	}
	return &KafkaWorker{client: client, d: newDeliverer(sender, policy, log.With("module", "kafka-worker"), m)}
}

// Run polls until ctx is cancelled or the client is closed. A record is
// committed once delivered or once its retries are exhausted, so a poison
// message cannot wedge the partition.
func (w *KafkaWorker) Run(ctx context.Context) {
	for {
		fetches := w.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			w.d.log.Info(context.Background(), "kafka worker stopped")
			return
		}
		fetches.EachError(func(t string, p int32, err error) {
			w.d.log.Error(ctx, "fetch error", "topic", t, "partition", p, "error", err)
		})

		fetches.EachRecord(func(rec *kgo.Record) {
			n, err := recToNotification(rec)
			if err != nil {
				w.d.log.Error(ctx, "skipping undecodable record", "offset", rec.Offset, "error", err)
			} else {
				_ = w.d.deliver(ctx, n)
			}
			if err := w.client.CommitRecords(ctx, rec); err != nil {
				w.d.log.Error(ctx, "commit failed", "offset", rec.Offset, "error", err)
			}
		})
	}
}
