// Package notify delivers notification events off the request path.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tablebook/booking-svc/internal/domain"
)

const (
	DefaultQueueSize      = 256
	DefaultPublishTimeout = 5 * time.Second
)

type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// DropCounter is told about every event that was not delivered.
type DropCounter interface {
	NotificationDropped(reason string)
}

// Dispatcher queues notifications and publishes them from a single worker.
// Notify never blocks: a full queue or a failed publish is logged and counted.
type Dispatcher struct {
	publisher Publisher
	queue     chan domain.Notification
	drops     DropCounter
	timeout   time.Duration
	logger    zerolog.Logger

	dropped atomic.Int64
	closed  atomic.Bool
	mu      sync.RWMutex
	done    chan struct{}
}

func NewDispatcher(publisher Publisher, queueSize int, drops DropCounter, logger zerolog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan domain.Notification, queueSize),
		drops:     drops,
		timeout:   DefaultPublishTimeout,
		logger:    logger.With().Str("component", "notify").Logger(),
		done:      make(chan struct{}),
	}
}

func (d *Dispatcher) Notify(n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		d.drop(n, "closed", nil)
		return
	}
	select {
	case d.queue <- n:
	default:
		d.drop(n, "queue_full", nil)
	}
}

// Run drains the queue until ctx is cancelled, then flushes what is left.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)
	for {
		select {
		case n := <-d.queue:
			d.publish(n)
		case <-ctx.Done():
			d.shutdown()
			return nil
		}
	}
}

func (d *Dispatcher) shutdown() {
	d.mu.Lock()
	d.closed.Store(true)
	close(d.queue)
	d.mu.Unlock()

	for n := range d.queue {
		d.publish(n)
	}
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) publish(n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.publisher.Publish(ctx, n); err != nil {
		d.drop(n, "publish_failed", err)
		return
	}
	d.logger.Debug().Str("type", string(n.Type)).Str("recipient", n.RecipientID.String()).Msg("notification published")
}

func (d *Dispatcher) drop(n domain.Notification, reason string, err error) {
	d.dropped.Add(1)
	if d.drops != nil {
		d.drops.NotificationDropped(reason)
	}
	d.logger.Warn().
		Err(err).
		Str("reason", reason).
		Str("type", string(n.Type)).
		Str("recipient", n.RecipientID.String()).
		Str("related_id", n.RelatedID.String()).
		Str("title", n.Title).
		Msg("notification dropped")
}
