package repo

import (
	"log/slog"
	"sync"
	"time"
)

// ErrorEvent is what adapters publish when a storage operation fails.
type ErrorEvent struct {
	Op      string
	Message string
	Err     error
	At      time.Time
}

// Observer fans storage failures out to every current listener,
// synchronously and in subscription order. A panicking listener is logged
// and skipped; delivery to the others continues.
type Observer struct {
	mu        sync.RWMutex
	nextID    int
	order     []int
	listeners map[int]func(ErrorEvent)
	log       *slog.Logger
}

func NewObserver(log *slog.Logger) *Observer {
	if log == nil {
		log = slog.Default()
	}
	return &Observer{
		listeners: map[int]func(ErrorEvent){},
		log:       log,
	}
}

// Subscribe registers fn and returns a function that removes it.
func (o *Observer) Subscribe(fn func(ErrorEvent)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.order = append(o.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()

			delete(o.listeners, id)
			for i, v := range o.order {
				if v == id {
					o.order = append(o.order[:i], o.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (o *Observer) Publish(ev ErrorEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	o.mu.RLock()
	fns := make([]func(ErrorEvent), 0, len(o.order))
	for _, id := range o.order {
		fns = append(fns, o.listeners[id])
	}
	o.mu.RUnlock()

	for _, fn := range fns {
		o.deliver(fn, ev)
	}
}

func (o *Observer) deliver(fn func(ErrorEvent), ev ErrorEvent) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("error listener panicked", "op", ev.Op, "panic", r)
		}
	}()
	fn(ev)
}

func (o *Observer) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.order)
}
