package repo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
)

func TestObserver_FanOutInOrder(t *testing.T) {
	o := NewObserver(logging.Discard())

	var got []string
	o.Subscribe(func(ev ErrorEvent) { got = append(got, "first:"+ev.Message) })
	o.Subscribe(func(ErrorEvent) { panic("listener bug") })
	o.Subscribe(func(ev ErrorEvent) { got = append(got, "third:"+ev.Message) })

	o.Publish(ErrorEvent{Op: "list clients", Message: "DB request failed", Err: errors.New("boom")})

	assert.Equal(t, []string{"first:DB request failed", "third:DB request failed"}, got)
}

func TestObserver_Unsubscribe(t *testing.T) {
	o := NewObserver(logging.Discard())

	calls := 0
	unsubscribe := o.Subscribe(func(ErrorEvent) { calls++ })
	assert.Equal(t, 1, o.Len())

	o.Publish(ErrorEvent{Message: "one"})
	unsubscribe()
	unsubscribe()
	o.Publish(ErrorEvent{Message: "two"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, o.Len())
}

func TestObserver_StampsEvents(t *testing.T) {
	o := NewObserver(nil)

	var ev ErrorEvent
	o.Subscribe(func(e ErrorEvent) { ev = e })
	o.Publish(ErrorEvent{Message: "x"})

	assert.False(t, ev.At.IsZero())
}
