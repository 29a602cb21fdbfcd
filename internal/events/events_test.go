package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(TypeTurnoCreated, func(e Event) error {
		got = append(got, string(e.Payload))
		return nil
	})
	bus.Subscribe(TypeTurnoCreated, func(e Event) error {
		got = append(got, "second")
		return nil
	})

	bus.Publish(Event{Type: TypeTurnoCreated, Payload: []byte("hello")})

	assert.Equal(t, []string{"hello", "second"}, got)
}

func TestPublishUnknownTypeIsIgnored(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(TypeTurnoCanceled, func(Event) error {
		t.Fatal("should not fire")
		return nil
	})

	bus.Publish(Event{Type: TypeTurnoCreated})
}

func TestPublishJSON(t *testing.T) {
	bus := NewEventBus()

	var payload map[string]any
	bus.Subscribe(TypeTurnoCreated, func(e Event) error {
		assert.False(t, e.CreatedAt.IsZero())
		return json.Unmarshal(e.Payload, &payload)
	})

	err := bus.PublishJSON(TypeTurnoCreated, map[string]any{"id": 7})
	require.NoError(t, err)
	assert.EqualValues(t, 7, payload["id"])

	assert.Error(t, bus.PublishJSON(TypeTurnoCreated, make(chan int)))
}
