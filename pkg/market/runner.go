package market

import (
	"context"
	"fmt"
	"time"

	"replybot/pkg/logx"
)

// Updater is the transport the runner polls. *Client satisfies it.
type Updater interface {
	GetUpdates(ctx context.Context, tag string) ([]Message, string, error)
}

// NewMessageEvent is the event variant the reply pipeline consumes. The ID
// keys redelivery suppression: it is derived from the message's type and
// stable feed id, so a redelivered message maps to the same event across
// polls and restarts.
type NewMessageEvent struct {
	ID      string
	Message Message
}

// EventID derives the dedup key for a feed message.
func EventID(msg Message) string {
	return fmt.Sprintf("%s:%d", msg.Type, msg.ID)
}

// Runner polls the marketplace update feed and emits NewMessageEvents on a
// channel. Single producer, single consumer; the consumer's sequential
// handling keeps at most one in-flight action per order.
type Runner struct {
	updater  Updater
	interval time.Duration
	events   chan NewMessageEvent
	logger   *logx.Logger
}

// NewRunner creates a runner polling updater every interval.
func NewRunner(updater Updater, interval time.Duration) *Runner {
	return &Runner{
		updater:  updater,
		interval: interval,
		events:   make(chan NewMessageEvent),
		logger:   logx.NewLogger("runner"),
	}
}

// Events returns the channel of inbound events. Closed when Run returns.
func (r *Runner) Events() <-chan NewMessageEvent {
	return r.events
}

// Run polls until ctx is cancelled. Poll failures are logged and retried on
// the next tick; a failed poll must never stop the loop.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.events)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var tag string
	for {
		messages, nextTag, err := r.updater.GetUpdates(ctx, tag)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("Update poll failed: %v", err)
		} else {
			tag = nextTag
			for i := range messages {
				event := NewMessageEvent{
					ID:      EventID(messages[i]),
					Message: messages[i],
				}
				select {
				case r.events <- event:
				case <-ctx.Done():
					return
				}
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
