package outbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/rbritto/stockflow/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop()

	got := make(chan domoutbox.Event, 1)
	bus.Subscribe("test.event", func(_ context.Context, e domoutbox.Event) error {
		got <- e
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{name: "test.event"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case e := <-got:
		if e.EventName() != "test.event" {
			t.Errorf("EventName = %s", e.EventName())
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop()

	var calls int32
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.event", func(_ context.Context, _ domoutbox.Event) error {
			atomic.AddInt32(&calls, 1)
			done <- struct{}{}
			return nil
		})
	}

	if err := bus.Publish(context.Background(), testEvent{name: "test.event"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("only %d of 3 handlers invoked", atomic.LoadInt32(&calls))
		}
	}
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop()

	bus.Subscribe("test.event", func(_ context.Context, _ domoutbox.Event) error {
		panic("boom")
	})
	survived := make(chan struct{}, 1)
	bus.Subscribe("test.event", func(_ context.Context, _ domoutbox.Event) error {
		survived <- struct{}{}
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{name: "test.event"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("second handler not invoked after panic in first")
	}

	// The dispatch loop must survive the panic for later events too.
	if err := bus.Publish(context.Background(), testEvent{name: "test.event"}); err != nil {
		t.Fatalf("Publish after panic: %v", err)
	}
	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("bus stopped dispatching after handler panic")
	}
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop()

	if err := bus.Publish(context.Background(), testEvent{name: "nobody.cares"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestPublishNilEventIsNoop(t *testing.T) {
	bus := NewBus(nil)
	if err := bus.Publish(context.Background(), nil); err != nil {
		t.Fatalf("Publish(nil): %v", err)
	}
}
