// Package calendar holds the stylist's calendar view and applies drag and
// resize gestures optimistically: the view changes at once, the store is
// asked to confirm, and a failed confirmation puts the appointment back.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

const DefaultConfirmTimeout = 5 * time.Second

const (
	MoveFailedMessage   = "Failed to move appointment"
	ResizeFailedMessage = "Failed to resize appointment"
)

// ErrGestureInFlight rejects a gesture on an appointment whose previous
// gesture is still confirming.
var ErrGestureInFlight = errors.New("calendar: appointment change still confirming")

// ErrConfirmTimeout is returned when the store did not answer within the
// confirm timeout.
var ErrConfirmTimeout = errors.New("calendar: confirmation timed out")

type Store interface {
	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	UpsertAppointment(ctx context.Context, ap models.Appointment) (models.Appointment, error)
}

type Board struct {
	store   Store
	timeout time.Duration
	log     *slog.Logger

	notify   func(message string)
	refresh  func(ctx context.Context)
	onChange func(view []models.Appointment)

	mu       sync.Mutex
	view     []models.Appointment
	inFlight map[string]struct{}
}

type Option func(*Board)

func WithConfirmTimeout(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithNotifier sets the synchronous failure notification.
func WithNotifier(fn func(message string)) Option {
	return func(b *Board) { b.notify = fn }
}

// WithRefresh is called after a gesture is committed so dependent views can
// reload.
func WithRefresh(fn func(ctx context.Context)) Option {
	return func(b *Board) { b.refresh = fn }
}

// WithOnChange receives a copy of the view every time it changes.
func WithOnChange(fn func(view []models.Appointment)) Option {
	return func(b *Board) { b.onChange = fn }
}

func WithLogger(log *slog.Logger) Option {
	return func(b *Board) { b.log = log }
}

func NewBoard(store Store, opts ...Option) *Board {
	b := &Board{
		store:    store,
		timeout:  DefaultConfirmTimeout,
		log:      slog.Default(),
		notify:   func(string) {},
		refresh:  func(context.Context) {},
		onChange: func([]models.Appointment) {},
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the view with the store's current list.
func (b *Board) Load(ctx context.Context) error {
	list, err := b.store.ListAppointments(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.view = append([]models.Appointment(nil), list...)
	sort.SliceStable(b.view, func(i, j int) bool {
		return b.view[i].StartAt.Before(b.view[j].StartAt)
	})
	view := b.snapshotLocked()
	b.mu.Unlock()

	b.onChange(view)
	return nil
}

func (b *Board) Appointments() []models.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) Appointment(id string) (models.Appointment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.view[i], true
	}
	return models.Appointment{}, false
}

// Pending reports whether a gesture on id is still confirming.
func (b *Board) Pending(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.inFlight[id]
	return ok
}

// Move drops the appointment at start, keeping its duration.
func (b *Board) Move(ctx context.Context, id string, start time.Time) error {
	return b.apply(ctx, id, MoveFailedMessage, func(ap *models.Appointment) error {
		return domain.Reschedule(ap, start, ap.DurationMin)
	})
}

// Resize sets the appointment to span [start, end).
func (b *Board) Resize(ctx context.Context, id string, start, end time.Time) error {
	return b.apply(ctx, id, ResizeFailedMessage, func(ap *models.Appointment) error {
		return domain.Reschedule(ap, start, domain.DurationBetween(start, end))
	})
}

func (b *Board) apply(
	ctx context.Context,
	id string,
	failMessage string,
	mutate func(*models.Appointment) error,
) error {

	// --------------------------------------------------
	// Apply optimistically
	// --------------------------------------------------

	b.mu.Lock()
	if _, busy := b.inFlight[id]; busy {
		b.mu.Unlock()
		return ErrGestureInFlight
	}
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return repo.ErrNotFound
	}

	before := b.view[i]
	after := before
	if err := mutate(&after); err != nil {
		b.mu.Unlock()
		return err
	}

	b.view[i] = after
	b.inFlight[id] = struct{}{}
	view := b.snapshotLocked()
	b.mu.Unlock()

	b.onChange(view)

	// --------------------------------------------------
	// Confirm
	// --------------------------------------------------

	err := b.confirm(ctx, after)

	b.mu.Lock()
	delete(b.inFlight, id)
	if err != nil {
		// Gestures touch one appointment each and never add or remove
		// entries, so restoring it yields the pre-gesture list when this
		// is the only gesture in flight and keeps edits that other
		// gestures have committed meanwhile.
		if j := b.indexLocked(id); j >= 0 {
			b.view[j] = before
		}
		view = b.snapshotLocked()
	}
	b.mu.Unlock()

	if err != nil {
		b.log.Warn("calendar change rolled back", "appointment_id", id, "err", err)
		b.onChange(view)
		b.notify(failMessage)
		return fmt.Errorf("%s: %w", failMessage, err)
	}

	b.refresh(ctx)
	return nil
}

// confirm bounds the store call by the confirm timeout even when the store
// ignores its context.
func (b *Board) confirm(ctx context.Context, ap models.Appointment) error {
	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := b.store.UpsertAppointment(cctx, ap)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return ErrConfirmTimeout
		}
		return cctx.Err()
	}
}

func (b *Board) indexLocked(id string) int {
	for i := range b.view {
		if b.view[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) snapshotLocked() []models.Appointment {
	return append([]models.Appointment(nil), b.view...)
}
