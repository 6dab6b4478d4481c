package history

import (
	"context"
	"testing"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

func TestRecorder_RecordsAllTopics(t *testing.T) {
	bus := event.NewBus()
	r := NewRecorder()
	if err := r.Attach(bus); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}

	ctx := context.Background()
	bus.Publish(ctx, events.RadarTriggered{EquipmentID: "r1"})
	bus.Publish(ctx, events.ParsingRequested{RequestID: "a"})
	bus.Publish(ctx, events.ParsingCompleted{RequestID: "a"})
	bus.Publish(ctx, events.InfractionConfirmed{PlateNumber: "AB123CD"})

	if r.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", r.Len())
	}

	all := r.Events()
	for i, want := range events.Topics() {
		if all[i].EventTopic() != want {
			t.Errorf("event %d topic = %s, want %s", i, all[i].EventTopic(), want)
		}
	}

	if got := r.Events(events.TopicParsingRequested, events.TopicParsingCompleted); len(got) != 2 {
		t.Errorf("expected 2 parsing events, got %d", len(got))
	}

	infractions := r.Infractions()
	if len(infractions) != 1 || infractions[0].PlateNumber != "AB123CD" {
		t.Errorf("Infractions() = %+v", infractions)
	}
}

func TestRecorder_AttachTwice(t *testing.T) {
	bus := event.NewBus()
	r := NewRecorder()
	r.Attach(bus)

	if err := r.Attach(bus); err != ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
	if got := bus.Stats().ActiveSubscribers; got != len(events.Topics()) {
		t.Errorf("ActiveSubscribers = %d, want %d", got, len(events.Topics()))
	}
}

func TestRecorder_DetachAndClear(t *testing.T) {
	bus := event.NewBus()
	r := NewRecorder()
	r.Attach(bus)

	ctx := context.Background()
	bus.Publish(ctx, events.RadarTriggered{})

	r.Detach()
	r.Detach()
	bus.Publish(ctx, events.RadarTriggered{})

	if r.Len() != 1 {
		t.Errorf("Len() = %d after detach, want 1", r.Len())
	}
	if got := bus.Stats().ActiveSubscribers; got != 0 {
		t.Errorf("ActiveSubscribers = %d, want 0", got)
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", r.Len())
	}
}

func TestRecorder_IgnoresForeignValues(t *testing.T) {
	r := NewRecorder()
	if err := r.Handle(context.Background(), "not an event"); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected nothing recorded, got %d", r.Len())
	}
}

func TestRecorder_IgnoresEventPointers(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	if err := r.Handle(ctx, &events.InfractionConfirmed{PlateNumber: "AB123CD"}); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}
	if err := r.Handle(ctx, events.InfractionConfirmed{PlateNumber: "EF456GH"}); err != nil {
		t.Fatalf("Handle() failed: %v", err)
	}

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	got := r.Infractions()
	if len(got) != 1 || got[0].PlateNumber != "EF456GH" {
		t.Errorf("Infractions() = %+v, want only EF456GH", got)
	}
}
