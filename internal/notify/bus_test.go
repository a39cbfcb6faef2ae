package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishOrderAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var got []string

	unsubA := bus.Subscribe(EventAdded, func(n Notification) error {
		got = append(got, "a:"+n.Detail.(EventDetail).EventID)
		return nil
	})
	bus.Subscribe(EventAdded, func(n Notification) error {
		got = append(got, "b:"+n.Detail.(EventDetail).EventID)
		return nil
	})
	bus.SubscribeAll(func(n Notification) error {
		got = append(got, "all:"+string(n.Name))
		return nil
	})

	require.NoError(t, bus.Publish(Notification{Name: EventAdded, Detail: EventDetail{EventID: "1"}}))
	unsubA()
	require.NoError(t, bus.Publish(Notification{Name: EventAdded, Detail: EventDetail{EventID: "2"}}))
	require.NoError(t, bus.Publish(Notification{Name: CalendarRendered}))

	assert.Equal(t, []string{
		"a:1", "b:1", "all:calendar-event-added",
		"b:2", "all:calendar-event-added",
		"all:calendar-rendered",
	}, got)
}

func TestBus_ErrorsAndPanicsAreCollected(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(EventRemoved, func(Notification) error { return errors.New("nope") })
	bus.Subscribe(EventRemoved, func(Notification) error { panic("boom") })
	bus.Subscribe(EventRemoved, func(Notification) error {
		delivered = true
		return nil
	})

	err := bus.Publish(Notification{Name: EventRemoved})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 handler(s) failed")
	assert.True(t, delivered)
}
