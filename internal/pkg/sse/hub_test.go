package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyRecipient(t *testing.T) {
	hub := NewHub()
	ana, cleanupAna := hub.Subscribe("ana")
	defer cleanupAna()
	ben, cleanupBen := hub.Subscribe("ben")
	defer cleanupBen()

	hub.Publish("ana", Event{RecipientID: "ana", Event: "notification", Data: "hello"})

	require.Len(t, ana, 1)
	got := <-ana
	assert.Equal(t, "hello", got.Data)
	assert.Len(t, ben, 0)
}

func TestHub_FullChannelDropsEvents(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("ana")
	defer cleanup()

	for i := 0; i < 15; i++ {
		hub.Publish("ana", Event{Event: "notification", Data: i})
	}
	assert.Len(t, ch, 10)
}

func TestHub_CleanupUnregisters(t *testing.T) {
	hub := NewHub()
	_, c1 := hub.Subscribe("ana")
	ch2, c2 := hub.Subscribe("ana")
	assert.Equal(t, 2, hub.SubscriberCount("ana"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	c1()
	c1()
	assert.Equal(t, 1, hub.SubscriberCount("ana"))

	c2()
	_, open := <-ch2
	assert.False(t, open)
	assert.Equal(t, 0, hub.TotalSubscribers())

	hub.Publish("ana", Event{Event: "notification"})
}
