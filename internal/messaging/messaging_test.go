package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusProduceConsume(t *testing.T) {
	bus := NewBus(4)
	out := make(chan Event, 4)
	go bus.Consume(out)

	assert.NoError(t, bus.Produce(Event{Kind: EventPageCrawled, URL: "https://example.com/a"}))
	bus.Close()

	select {
	case e := <-out:
		assert.Equal(t, EventPageCrawled, e.Kind)
		assert.Equal(t, "https://example.com/a", e.URL)
	case <-time.After(time.Second):
		t.Fatal("expected event not received")
	}
}

func TestBusProduceDropsOnFullBuffer(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	assert.NoError(t, bus.Produce(Event{Kind: EventPageCrawled, URL: "a"}))
	assert.NoError(t, bus.Produce(Event{Kind: EventPageCrawled, URL: "b"}))
}
