package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

const (
	defaultWorkers      = 4
	channelBuffer       = 256
	defaultDrainTimeout = 5 * time.Second
)

// Dispatcher fans audit events out to a fixed set of workers, sharded by user
// name so that one user's events reach the sink in the order they happened.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	sink    ports.AuditSink
	log     zerolog.Logger
	onDrop  func()
	drain   time.Duration
	wg      sync.WaitGroup
}

type Option func(*Dispatcher)

// WithDropHook registers a callback invoked whenever a full shard drops an event.
func WithDropHook(fn func()) Option {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// WithDrainTimeout bounds how long workers keep writing buffered events after
// the start context is cancelled.
func WithDrainTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.drain = d }
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.AuditSink, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		sink:    sink,
		log:     log,
		drain:   defaultDrainTimeout,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// writes what is left in its shard, within the drain timeout, then stops.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record enqueues event without blocking. When the shard is full the event is
// dropped and logged so the request path never waits on the sink.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	select {
	case d.workers[d.shardIndex(shardKey(event))] <- event:
	default:
		d.dropped(event, "audit queue full, event dropped")
	}
}

func (d *Dispatcher) dropped(event domain.AuditEvent, msg string) {
	d.log.Warn().
		Str("action", string(event.Action)).
		Str("request_id", event.RequestID).
		Msg(msg)
	if d.onDrop != nil {
		d.onDrop()
	}
}

func shardKey(event domain.AuditEvent) string {
	if event.UserName != "" {
		return event.UserName
	}
	return event.RequestID
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drainShard(id, ch)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.write(ctx, id, event)
		}
	}
}

// drainShard writes the events still buffered in ch. Once the drain timeout
// passes, the rest are dropped through the usual drop path.
func (d *Dispatcher) drainShard(id int, ch <-chan domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.drain)
	defer cancel()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				d.dropped(event, "audit drain timed out, event dropped")
				continue
			}
			d.write(ctx, id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.AuditEvent) {
	if err := d.sink.Write(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("action", string(event.Action)).
			Str("request_id", event.RequestID).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
