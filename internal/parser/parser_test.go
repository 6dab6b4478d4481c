package parser

import (
	"context"
	"testing"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

func collect(t *testing.T, bus event.Bus) *[]events.ParsingCompleted {
	t.Helper()
	var got []events.ParsingCompleted
	_, err := bus.Subscribe(events.TopicParsingCompleted,
		event.AsHandlerFunc(func(ctx context.Context, e events.ParsingCompleted) error {
			got = append(got, e)
			return nil
		}))
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	return &got
}

func TestParser_RepliesWithSameRequestID(t *testing.T) {
	bus := event.NewBus()
	replies := collect(t, bus)

	p := New()
	p.On([]byte("photo1"), []events.PlateReading{{PlateNumber: "AB123CD", Confidence: 0.9}})
	if err := p.Attach(bus); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}

	err := bus.Publish(context.Background(), events.ParsingRequested{RequestID: "req-1", RawPhoto: []byte("photo1")})
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	if len(*replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(*replies))
	}
	reply := (*replies)[0]
	if reply.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", reply.RequestID)
	}
	if len(reply.Results) != 1 || reply.Results[0].PlateNumber != "AB123CD" {
		t.Errorf("unexpected results: %+v", reply.Results)
	}
	if ids := p.Requests(); len(ids) != 1 || ids[0] != "req-1" {
		t.Errorf("Requests() = %v", ids)
	}
}

func TestParser_UnconfiguredPhotoGetsNoReply(t *testing.T) {
	bus := event.NewBus()
	replies := collect(t, bus)

	p := New()
	p.Attach(bus)

	bus.Publish(context.Background(), events.ParsingRequested{RequestID: "req-1", RawPhoto: []byte("unknown")})

	if len(*replies) != 0 {
		t.Errorf("expected no reply, got %d", len(*replies))
	}
	if len(p.Requests()) != 1 {
		t.Errorf("expected the request to be recorded")
	}
}

func TestParser_EmptyReadingsAreAReply(t *testing.T) {
	bus := event.NewBus()
	replies := collect(t, bus)

	p := New()
	p.On([]byte("blurry"), nil)
	p.Attach(bus)

	bus.Publish(context.Background(), events.ParsingRequested{RequestID: "req-1", RawPhoto: []byte("blurry")})

	if len(*replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(*replies))
	}
	if len((*replies)[0].Results) != 0 {
		t.Errorf("expected empty results, got %+v", (*replies)[0].Results)
	}
}

func TestParser_AttachDetach(t *testing.T) {
	bus := event.NewBus()
	replies := collect(t, bus)

	p := New()
	p.On([]byte("photo1"), []events.PlateReading{{PlateNumber: "AB123CD", Confidence: 0.9}})

	if err := p.Attach(bus); err != nil {
		t.Fatalf("Attach() failed: %v", err)
	}
	if err := p.Attach(bus); err != ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	p.Detach()
	p.Detach()

	bus.Publish(context.Background(), events.ParsingRequested{RequestID: "req-1", RawPhoto: []byte("photo1")})
	if len(*replies) != 0 {
		t.Errorf("detached parser replied %d times", len(*replies))
	}

	// Only the collector remains.
	if got := bus.Stats().ActiveSubscribers; got != 1 {
		t.Errorf("ActiveSubscribers = %d, want 1", got)
	}
}

func TestParser_OnCopiesReadings(t *testing.T) {
	bus := event.NewBus()
	replies := collect(t, bus)

	readings := []events.PlateReading{{PlateNumber: "AB123CD", Confidence: 0.9}}
	p := New()
	p.On([]byte("photo1"), readings)
	p.Attach(bus)

	readings[0].PlateNumber = "MUTATED"
	bus.Publish(context.Background(), events.ParsingRequested{RequestID: "req-1", RawPhoto: []byte("photo1")})

	if got := (*replies)[0].Results[0].PlateNumber; got != "AB123CD" {
		t.Errorf("PlateNumber = %q, want AB123CD", got)
	}
}
