package amqp

import (
	"context"
	"log/slog"
	"sync/atomic"

	"gastos/internal/store"
)

// Publisher is the part of Client the relay needs.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// Relay forwards store changes to a publisher from a background goroutine so
// that store mutations never wait on the broker. When the buffer is full new
// changes are dropped and counted.
type Relay struct {
	pub     Publisher
	logger  *slog.Logger
	queue   chan *ChangeMessage
	dropped atomic.Int64
	sent    atomic.Int64
}

func NewRelay(pub Publisher, buffer int, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Relay{
		pub:    pub,
		logger: logger,
		queue:  make(chan *ChangeMessage, buffer),
	}
}

// Attach subscribes the relay to s. The returned func detaches it.
func (r *Relay) Attach(s *store.Store) (detach func()) {
	return s.Subscribe(r.Enqueue)
}

// Enqueue queues a change without blocking.
func (r *Relay) Enqueue(c store.Change) {
	select {
	case r.queue <- NewChangeMessage(c):
	default:
		r.dropped.Add(1)
		r.logger.Warn("AMQP relay buffer full, dropping change", "id", int64(c.ID), "op", string(c.Op))
	}
}

// Run publishes queued changes until ctx is done. Anything still queued at
// that point is flushed with a fresh context.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-r.queue:
			r.publish(ctx, msg)
		case <-ctx.Done():
			r.flush()
			return nil
		}
	}
}

func (r *Relay) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for {
		select {
		case msg := <-r.queue:
			r.publish(ctx, msg)
		default:
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, msg *ChangeMessage) {
	if err := r.pub.PublishChange(ctx, msg); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish change message",
			"id", msg.ID, "op", msg.Op, "error", err)
		return
	}
	r.sent.Add(1)
}

// Stats returns how many changes were published and dropped.
func (r *Relay) Stats() (sent, dropped int64) {
	return r.sent.Load(), r.dropped.Load()
}
