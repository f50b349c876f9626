package delivery

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
)

// LogSender writes each notification to the structured log. It stands in
// for a chat DM sender.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "dm")}
}

func (s *LogSender) Send(ctx context.Context, n models.Notification) error {
	s.log.Info(ctx, "direct message", "user", n.UserID, "kind", n.Kind, "day", n.Day, "text", n.Text)
	return nil
}

// WriterSender prints notifications to w, one block per message.
type WriterSender struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSender(w io.Writer) *WriterSender {
	return &WriterSender{w: w}
}

func (s *WriterSender) Send(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "[dm to %s]\n%s\n", n.UserID, n.Text)
	return err
}

// Inbox keeps the most recent notifications per user in memory so the HTTP
// surface can show what a user was sent.
type Inbox struct {
	mu    sync.Mutex
	limit int
	items map[string][]models.Notification
}

func NewInbox(limit int) *Inbox {
	if limit < 1 {
		limit = 1
	}
	return &Inbox{limit: limit, items: make(map[string][]models.Notification)}
}

func (b *Inbox) Send(ctx context.Context, n models.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := append(b.items[n.UserID], n)
	if len(list) > b.limit {
		list = list[len(list)-b.limit:]
	}
	b.items[n.UserID] = list
	return nil
}

// Messages returns the user's notifications, oldest first.
func (b *Inbox) Messages(userID string) []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Notification(nil), b.items[userID]...)
}

// Fanout sends to every sender and returns the first error.
type Fanout []Sender

func (f Fanout) Send(ctx context.Context, n models.Notification) error {
	_, err := f.sendAll(ctx, n)
	return err
}

// sendAll is Send that also returns the senders that failed, so a retry
// does not repeat the ones that already succeeded.
func (f Fanout) sendAll(ctx context.Context, n models.Notification) (Fanout, error) {
	var (
		failed Fanout
		first  error
	)
	for _, s := range f {
		if err := s.Send(ctx, n); err != nil {
			failed = append(failed, s)
			if first == nil {
				first = err
			}
		}
	}
	return failed, first
}
