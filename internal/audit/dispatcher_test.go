package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Record(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	d.Dispatch(Event{Action: "client.upsert", Entity: "client", EntityID: "c1"})
	d.Dispatch(Event{Action: "client.delete", Entity: "client", EntityID: "c1"})

	require.NoError(t, d.Close(context.Background()))

	events := sink.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, "client.upsert", events[0].Action)
	assert.Equal(t, "client.delete", events[1].Action)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, slog.New(slog.NewTextHandler(&buf, nil)))

	// One event is held by the blocked worker, queueSize fill the channel.
	for i := 0; i < queueSize+5; i++ {
		d.Dispatch(Event{Action: "appointment.upsert"})
	}

	close(sink.block)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Less(t, len(sink.recorded()), queueSize+5)
	assert.Contains(t, buf.String(), "audit queue full")
}

func TestDispatcher_SinkErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{err: errors.New("db down")}
	d := NewDispatcher(sink, slog.New(slog.NewTextHandler(&buf, nil)))

	d.Dispatch(Event{Action: "backup.import", Entity: "backup"})
	require.NoError(t, d.Close(context.Background()))

	assert.Contains(t, buf.String(), "audit write failed")
	assert.Contains(t, buf.String(), "db down")
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Dispatch(Event{Action: "x"}) })
	assert.NoError(t, d.Close(context.Background()))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	err := sink.Record(context.Background(), Event{
		Action:   "invite.regenerate",
		Entity:   "client",
		EntityID: "client_avery",
		Metadata: map[string]string{"source": "cli"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "action=invite.regenerate")
	assert.Contains(t, out, "entity_id=client_avery")
	assert.Contains(t, out, "source")
}
