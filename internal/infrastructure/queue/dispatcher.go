package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

type kind string

const (
	kindWelcome      kind = "welcome"
	kindCancellation kind = "cancellation"
)

type notification struct {
	kind  kind
	email string
	name  string
}

// Dispatcher delivers account notifications asynchronously through a fixed
// set of workers. Notifications shard by recipient, so the welcome and
// cancellation mails of one account never reorder. It implements
// ports.Notifier; enqueueing always succeeds, delivery errors are logged.
type Dispatcher struct {
	workers []chan notification
	mailer  ports.Notifier
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher delivering through mailer with
// numWorkers sharded workers. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan notification, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// SendWelcome enqueues a welcome mail. Never blocks and never returns a
// delivery error; with a full shard buffer the notification is dropped.
func (d *Dispatcher) SendWelcome(email, name string) error {
	d.enqueue(notification{kind: kindWelcome, email: email, name: name})
	return nil
}

// SendCancellation enqueues a cancellation mail.
func (d *Dispatcher) SendCancellation(email, name string) error {
	d.enqueue(notification{kind: kindCancellation, email: email, name: name})
	return nil
}

func (d *Dispatcher) enqueue(n notification) {
	select {
	case d.workers[d.shardIndex(n.email)] <- n:
	default:
		// Shard buffer full (stalled delivery). Drop rather than block the
		// request that triggered the notification.
		metrics.NotificationsSentTotal.WithLabelValues(string(n.kind), "dropped").Inc()
		d.log.Warn().
			Str("email", n.email).
			Str("kind", string(n.kind)).
			Msg("notification dropped, worker queue full")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			var err error
			switch n.kind {
			case kindWelcome:
				err = d.mailer.SendWelcome(n.email, n.name)
			case kindCancellation:
				err = d.mailer.SendCancellation(n.email, n.name)
			}
			if err != nil {
				metrics.NotificationsSentTotal.WithLabelValues(string(n.kind), "error").Inc()
				d.log.Error().Err(err).
					Str("email", n.email).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			metrics.NotificationsSentTotal.WithLabelValues(string(n.kind), "sent").Inc()
		}
	}
}
