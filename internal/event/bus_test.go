package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	first, unsubFirst := bus.Subscribe()
	second, unsubSecond := bus.Subscribe()
	defer unsubSecond()

	Publish(bus, TypeGroupToggled, map[string]string{"id": "group-1"})

	for _, ch := range []<-chan Event{first, second} {
		e := <-ch
		assert.Equal(t, TypeGroupToggled, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Timestamp)
	}

	unsubFirst()
	_, open := <-first
	assert.False(t, open)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(nil)
	ch, unsub := bus.Subscribe()
	defer unsub()

	for i := 0; i < 150; i++ {
		bus.Publish(New(TypeTrashAdded, i))
	}
	require.Len(t, ch, 100)
}

func TestPublishToNilBusIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { Publish(nil, TypeTrashPruned, nil) })
}
