package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func infraction(plate string) events.InfractionConfirmed {
	return events.InfractionConfirmed{
		PlateNumber:     plate,
		TriggeredAt:     time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		MeasuredSpeed:   140,
		ConsideredSpeed: 126,
		MaximumSpeed:    100,
		EquipmentID:     "radar-1",
	}
}

func TestSink_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	bus := event.NewBus()
	sink := NewSink(&buf)
	if err := sink.Attach(bus); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	ctx := context.Background()
	for _, plate := range []string{"AB-123-CD", "EF-456-GH"} {
		if err := bus.Publish(ctx, infraction(plate)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}
	// Other topics are not written.
	if err := bus.Publish(ctx, events.ParsingRequested{RequestID: "r1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if sink.Count() != 2 {
		t.Fatalf("Count = %d, want 2", sink.Count())
	}

	var records []Record
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("invalid line %q: %v", scanner.Text(), err)
		}
		records = append(records, r)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(records))
	}
	want := NewRecord(infraction("AB-123-CD"))
	if !records[0].TriggeredAt.Equal(want.TriggeredAt) {
		t.Errorf("TriggeredAt = %v, want %v", records[0].TriggeredAt, want.TriggeredAt)
	}
	records[0].TriggeredAt = want.TriggeredAt
	if records[0] != want {
		t.Errorf("record = %+v, want %+v", records[0], want)
	}
	if records[1].PlateNumber != "EF-456-GH" {
		t.Errorf("second plate = %q", records[1].PlateNumber)
	}
}

func TestSink_WriteFailurePropagates(t *testing.T) {
	diskFull := errors.New("disk full")
	bus := event.NewBus()
	sink := NewSink(failingWriter{err: diskFull})
	if err := sink.Attach(bus); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	err := bus.Publish(context.Background(), infraction("AB-123-CD"))
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected write error, got %v", err)
	}

	var herr *event.HandlerError
	if !errors.As(err, &herr) {
		t.Errorf("expected *event.HandlerError, got %T", err)
	}
	if sink.Count() != 0 {
		t.Errorf("Count = %d, want 0", sink.Count())
	}
}

func TestSink_AttachDetach(t *testing.T) {
	var buf bytes.Buffer
	bus := event.NewBus()
	sink := NewSink(&buf)

	if err := sink.Attach(bus); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := sink.Attach(bus); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	sink.Detach()
	sink.Detach()

	if err := bus.Publish(context.Background(), infraction("AB-123-CD")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("detached sink wrote %q", buf.String())
	}

	if err := sink.Attach(bus); err != nil {
		t.Errorf("re-attach failed: %v", err)
	}
}
