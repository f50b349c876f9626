package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PromMetrics struct {
	ticks           prometheus.Counter
	tickUsers       prometheus.Gauge
	tickDuration    prometheus.Histogram
	fired           *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	enqueued        prometheus.Counter
	delivered       prometheus.Counter
	deliveryLatency prometheus.Histogram
	retried         prometheus.Counter
	failed          prometheus.Counter
	persistFailed   prometheus.Counter
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_reminder_ticks_total",
			Help: "Number of reminder scheduler ticks",
		}),
		tickUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "todobot_reminder_tick_users",
			Help: "Users with a timezone scanned by the last tick",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todobot_reminder_tick_duration_seconds",
			Help:    "Time spent scanning users in one tick",
			Buckets: prometheus.DefBuckets,
		}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todobot_reminders_fired_total",
			Help: "Daily reminders fired, by payload kind",
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todobot_reminders_skipped_total",
			Help: "Users skipped during a tick because of an error",
		}, []string{"reason"}),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_notifications_enqueued_total",
			Help: "Notifications handed to the delivery queue",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_notifications_delivered_total",
			Help: "Notifications accepted by the sender",
		}),
		deliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "todobot_notification_delivery_latency_seconds",
			Help:    "Time from creation to successful delivery",
			Buckets: prometheus.DefBuckets,
		}),
		retried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_notifications_retried_total",
			Help: "Delivery attempts that were retried",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_notifications_failed_total",
			Help: "Notifications dropped after the last retry",
		}),
		persistFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todobot_store_persist_failed_total",
			Help: "User state writes that failed and were rolled back",
		}),
	}
	reg.MustRegister(m.ticks, m.tickUsers, m.tickDuration, m.fired, m.skipped,
		m.enqueued, m.delivered, m.deliveryLatency, m.retried, m.failed, m.persistFailed)
	return m
}

func (m *PromMetrics) TickCompleted(users int, d time.Duration) {
	m.ticks.Inc()
	m.tickUsers.Set(float64(users))
	m.tickDuration.Observe(d.Seconds())
}

func (m *PromMetrics) ReminderFired(kind string) {
	m.fired.WithLabelValues(kind).Inc()
}

func (m *PromMetrics) ReminderSkipped(reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *PromMetrics) NotificationEnqueued() {
	m.enqueued.Inc()
}

func (m *PromMetrics) NotificationDelivered(latency time.Duration) {
	m.delivered.Inc()
	m.deliveryLatency.Observe(latency.Seconds())
}

func (m *PromMetrics) NotificationRetried() {
	m.retried.Inc()
}

func (m *PromMetrics) NotificationFailed() {
	m.failed.Inc()
}

func (m *PromMetrics) PersistFailed() {
	m.persistFailed.Inc()
}
