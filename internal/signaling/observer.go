package signaling

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"consult-signaling/internal/calls"
)

// Observer receives call lifecycle events after the state change happened.
// Observe must not block the signaling path.
type Observer interface {
	Observe(calls.Event)
}

type ObserverFunc func(calls.Event)

func (f ObserverFunc) Observe(ev calls.Event) { f(ev) }

// EventHandler is a side effect run off the signaling path (audit, appointments).
type EventHandler func(ctx context.Context, ev calls.Event) error

// Dispatcher is an Observer that queues events and runs registered handlers
// on a single worker. Events are dropped when the queue is full.
type Dispatcher struct {
	queue    chan calls.Event
	log      *slog.Logger
	dropped  atomic.Int64
	mu       sync.RWMutex
	handlers []namedHandler
	done     chan struct{}
}

type namedHandler struct {
	name string
	fn   EventHandler
}

func NewDispatcher(log *slog.Logger, buffer int) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		queue: make(chan calls.Event, buffer),
		log:   log,
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Register(name string, fn EventHandler) {
	d.mu.Lock()
	d.handlers = append(d.handlers, namedHandler{name: name, fn: fn})
	d.mu.Unlock()
}

func (d *Dispatcher) Observe(ev calls.Event) {
	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		d.log.Warn("call event dropped", "type", string(ev.Type), "call_id", ev.Call.ID)
	}
}

func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Run processes events until ctx is cancelled, then drains what is queued.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case ev := <-d.queue:
			d.dispatch(ctx, ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.queue:
					d.dispatch(context.WithoutCancel(ctx), ev)
				default:
					return
				}
			}
		}
	}
}

// Done is closed when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

func (d *Dispatcher) dispatch(ctx context.Context, ev calls.Event) {
	d.mu.RLock()
	hs := d.handlers
	d.mu.RUnlock()
	for _, h := range hs {
		if err := h.fn(ctx, ev); err != nil {
			d.log.Error("call event handler failed", "handler", h.name, "type", string(ev.Type), "call_id", ev.Call.ID, "err", err)
		}
	}
}
