// Package audit writes confirmed infractions to a durable stream.
//
// Each infraction.confirmed event becomes one JSON object per line. A write
// failure is returned from the handler, so the publisher of the infraction
// sees it.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

// ErrAlreadyAttached is returned when attaching a sink that is already on a bus.
var ErrAlreadyAttached = errors.New("audit sink is already attached to a bus")

// Record is the JSON form of a confirmed infraction.
type Record struct {
	PlateNumber     string    `json:"plate_number"`
	TriggeredAt     time.Time `json:"triggered_at"`
	MeasuredSpeed   int       `json:"measured_speed"`
	ConsideredSpeed int       `json:"considered_speed"`
	MaximumSpeed    int       `json:"maximum_speed"`
	EquipmentID     string    `json:"equipment_id"`
}

// NewRecord converts an event to its audit form.
func NewRecord(e events.InfractionConfirmed) Record {
	return Record{
		PlateNumber:     e.PlateNumber,
		TriggeredAt:     e.TriggeredAt,
		MeasuredSpeed:   e.MeasuredSpeed,
		ConsideredSpeed: e.ConsideredSpeed,
		MaximumSpeed:    e.MaximumSpeed,
		EquipmentID:     e.EquipmentID,
	}
}

// Sink appends infractions to a writer.
type Sink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	count  int
	bus    event.Bus
	sub    event.Subscription
	logger *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the logger used by the sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSink creates a detached sink writing to w.
func NewSink(w io.Writer, opts ...Option) *Sink {
	s := &Sink{
		enc:    json.NewEncoder(w),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes the sink to confirmed infractions on bus.
func (s *Sink) Attach(bus event.Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bus != nil {
		return ErrAlreadyAttached
	}

	sub, err := bus.Subscribe(events.TopicInfractionConfirmed, s)
	if err != nil {
		return err
	}
	s.bus = bus
	s.sub = sub
	return nil
}

// Detach unsubscribes the sink.
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bus == nil {
		return
	}
	s.bus.Unsubscribe(s.sub)
	s.bus = nil
	s.sub = nil
}

// Count returns the number of records written.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Handle implements event.Handler.
func (s *Sink) Handle(ctx context.Context, evt any) error {
	e, ok := evt.(events.InfractionConfirmed)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(NewRecord(e)); err != nil {
		return fmt.Errorf("writing infraction for %s: %w", e.PlateNumber, err)
	}
	s.count++

	s.logger.InfoContext(ctx, "infraction recorded",
		"plate", e.PlateNumber,
		"equipment", e.EquipmentID,
		"measured_speed", e.MeasuredSpeed,
		"considered_speed", e.ConsideredSpeed,
		"maximum_speed", e.MaximumSpeed,
	)
	return nil
}
