// Package events is the in-process event plumbing the modules talk through:
// zone mutations expire the cached zone table, commercial transitions feed
// the logging hooks. Domain payloads live in internal/events; this package
// carries no business logic.
package events

import (
	"context"
	"time"
)

// Event is a domain event. Names are dotted "<module>.<entity>.<action>"
// strings ("zones.zone.changed"); subscribers key on the full name.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with its occurrence time. Embed it in every
// payload and build it with NewBaseEvent.
type BaseEvent struct {
	At time.Time `json:"occurredAt"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.At }

// NewBaseEvent stamps the current time in UTC.
func NewBaseEvent() BaseEvent {
	return BaseEvent{At: time.Now().UTC()}
}

// Handler consumes events of one name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously; handler failures never reach the
	// publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler. Used where the
	// side effect must land before the operation returns, like the cache
	// invalidation after a zone mutation.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for one event name, as returned by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
