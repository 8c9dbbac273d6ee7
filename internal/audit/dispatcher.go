package audit

import (
	"context"
	"log/slog"
	"sync"
)

const queueSize = 100

type Event struct {
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Sink persists audit events.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	sink  Sink
	log   *slog.Logger
	queue chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(sink Sink, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		sink:  sink,
		log:   log,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.sink.Record(context.Background(), ev); err != nil {
			d.log.Error("audit write failed", "action", ev.Action, "entity", ev.Entity, "err", err)
		}
	}
}

// Dispatch never blocks the request path: a full queue drops the event.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event", "action", ev.Action, "entity", ev.Entity)
	}
}

// Close drains queued events and stops the worker. Dispatch must not be
// called after Close.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() { close(d.queue) })
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
