// Package metrics defines the counters the reminder scheduler, the delivery
// queue and the store report, with a Prometheus and a no-op implementation.
package metrics

import "time"

type Metrics interface {
	// Reminder scheduler.
	TickCompleted(users int, d time.Duration)
	ReminderFired(kind string)
	ReminderSkipped(reason string)

	// Delivery queue.
	NotificationEnqueued()
	NotificationDelivered(latency time.Duration)
	NotificationRetried()
	NotificationFailed()

	// Store.
	PersistFailed()
}

type Nop struct{}

func (Nop) TickCompleted(int, time.Duration)    {}
func (Nop) ReminderFired(string)                {}
func (Nop) ReminderSkipped(string)              {}
func (Nop) NotificationEnqueued()               {}
func (Nop) NotificationDelivered(time.Duration) {}
func (Nop) NotificationRetried()                {}
func (Nop) NotificationFailed()                 {}
func (Nop) PersistFailed()                      {}
