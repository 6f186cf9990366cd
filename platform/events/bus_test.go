package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"iei_backend/platform/logger"
)

type pingEvent struct{ BaseEvent }

func (pingEvent) EventName() string { return "test.ping" }

func TestNewBaseEvent_StampsUTC(t *testing.T) {
	e := NewBaseEvent()
	if e.OccurredAt().Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", e.OccurredAt().Location())
	}
	if time.Since(e.OccurredAt()) > time.Minute {
		t.Fatalf("occurred at = %v, want recent", e.OccurredAt())
	}
}

func TestInMemoryBus_PublishSyncRunsAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var calls []string
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("first handler failed")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err == nil || err.Error() != "first handler failed" {
		t.Fatalf("err = %v, want first handler error", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want both handlers despite the first failing", calls)
	}
}

func TestInMemoryBus_PublishSyncNoSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	if err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("publish with no subscribers: %v", err)
	}
}
