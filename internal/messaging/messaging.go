// Package messaging carries crawl telemetry events from the crawl driver
// to whatever is consuming them (currently a structured-logging
// consumer wired up in cmd/offlineseo). Adapted from the teacher's
// messaging package (Producer/Consumer/ChannelQueue over []byte) but
// narrowed to a typed Event so the CLI doesn't need to marshal/unmarshal
// its own telemetry.
package messaging

// Event is one crawl lifecycle notification.
type Event struct {
	Kind string
	URL  string
	Err  error
}

// Kinds of crawl events this bus carries.
const (
	EventPageCrawled   = "page_crawled"
	EventPageDropped   = "page_dropped"
	EventRobotsBlocked = "robots_blocked"
	EventCrawlStopped  = "crawl_stopped"
)

// Producer enqueues events, matching the teacher's Producer interface
// generalized from []byte to Event.
type Producer interface {
	Produce(Event) error
}

// Consumer drains events into a caller-owned channel, matching the
// teacher's Consumer interface.
type Consumer interface {
	Consume(chan<- Event) error
}

// ProducerConsumer is the combined behavior, matching the teacher's
// ProducerConsumer.
type ProducerConsumer interface {
	Producer
	Consumer
}

// Bus is an in-process ProducerConsumer backed by a channel, adapted
// from the teacher's ChannelQueue.
type Bus struct {
	events chan Event
}

// NewBus creates a Bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{events: make(chan Event, buffer)}
}

// Produce enqueues an event. It never blocks indefinitely on a full,
// unconsumed bus: a telemetry bus must never throttle the crawl it
// instruments, so a full buffer drops the event rather than stalling
// the caller.
func (b *Bus) Produce(event Event) error {
	select {
	case b.events <- event:
	default:
	}
	return nil
}

// Consume forwards every event received on the bus into out until the
// bus is closed.
func (b *Bus) Consume(out chan<- Event) error {
	for event := range b.events {
		out <- event
	}
	return nil
}

// Close closes the underlying channel. Safe to call once.
func (b *Bus) Close() {
	close(b.events)
}

// nopProducer discards every event. Callers that don't care about crawl
// telemetry (tests, one-off driver construction) can use it instead of
// nil-checking a Producer on every Produce call.
type nopProducer struct{}

func (nopProducer) Produce(Event) error { return nil }

// NewNop returns a Producer that discards every event.
func NewNop() Producer {
	return nopProducer{}
}
