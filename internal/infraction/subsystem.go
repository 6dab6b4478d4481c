package infraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

// pendingRequest is what the subsystem keeps while waiting for a parsing
// reply. The photo is not kept once the request has been published.
type pendingRequest struct {
	triggeredAt     time.Time
	measuredSpeed   int
	maximumSpeed    int
	consideredSpeed int
	equipmentID     string
}

// Stats contains subsystem counters.
type Stats struct {
	// Triggers is the number of radar.triggered events handled.
	Triggers uint64

	// BelowThreshold is the number of triggers dropped as not speeding.
	BelowThreshold uint64

	// Requested is the number of parsing requests published.
	Requested uint64

	// Confirmed is the number of infractions published.
	Confirmed uint64

	// Unconfirmed is the number of replies that did not name a single plate.
	Unconfirmed uint64

	// UnknownResponses is the number of replies with no pending request.
	UnknownResponses uint64

	// Pending is the number of requests awaiting a reply.
	Pending int
}

// Subsystem turns radar triggers into confirmed infractions.
// The zero value is not usable; call New.
type Subsystem struct {
	mu      sync.Mutex
	bus     event.Bus
	subs    []event.Subscription
	pending map[string]pendingRequest

	logger *slog.Logger
	nextID func() string
	strict bool

	triggers         atomic.Uint64
	belowThreshold   atomic.Uint64
	requested        atomic.Uint64
	confirmed        atomic.Uint64
	unconfirmed      atomic.Uint64
	unknownResponses atomic.Uint64
}

// New creates an unplugged subsystem.
func New(opts ...Option) *Subsystem {
	s := &Subsystem{
		pending: make(map[string]pendingRequest),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		nextID:  defaultRequestID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlugToBus subscribes the subsystem to bus. A subsystem can be plugged to
// one bus at a time; plugging again fails with ErrConfiguration until
// UnplugFromBus succeeds.
func (s *Subsystem) PlugToBus(bus event.Bus) error {
	if bus == nil {
		return ErrNilBus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bus != nil {
		return ErrConfiguration
	}

	radarSub, err := bus.Subscribe(events.TopicRadarTriggered,
		event.AsHandlerFunc(s.handleRadarTriggered))
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", events.TopicRadarTriggered, err)
	}

	parsingSub, err := bus.Subscribe(events.TopicParsingCompleted,
		event.AsHandlerFunc(s.handleParsingCompleted))
	if err != nil {
		bus.Unsubscribe(radarSub)
		return fmt.Errorf("subscribing to %s: %w", events.TopicParsingCompleted, err)
	}

	s.bus = bus
	s.subs = []event.Subscription{radarSub, parsingSub}
	s.logger.Debug("plugged to bus")
	return nil
}

// UnplugFromBus unsubscribes the subsystem from its bus.
//
// If requests are pending and dropPending is false, nothing changes and
// ErrPendingBusInteraction is returned. Otherwise pending requests are
// discarded and the subsystem may be plugged again, to any bus. Unplugging
// a subsystem that is not plugged does nothing.
func (s *Subsystem) UnplugFromBus(dropPending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.pending); n > 0 {
		if !dropPending {
			return fmt.Errorf("%w: %d request(s)", ErrPendingBusInteraction, n)
		}
		s.logger.Warn("dropping pending parsing requests", "count", n)
	}

	if s.bus != nil {
		for _, sub := range s.subs {
			s.bus.Unsubscribe(sub)
		}
		s.logger.Debug("unplugged from bus")
	}

	s.pending = make(map[string]pendingRequest)
	s.subs = nil
	s.bus = nil
	return nil
}

// IsPlugged reports whether the subsystem is attached to a bus.
func (s *Subsystem) IsPlugged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus != nil
}

// Pending returns the number of requests awaiting a reply.
func (s *Subsystem) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stats returns current subsystem counters.
func (s *Subsystem) Stats() Stats {
	return Stats{
		Triggers:         s.triggers.Load(),
		BelowThreshold:   s.belowThreshold.Load(),
		Requested:        s.requested.Load(),
		Confirmed:        s.confirmed.Load(),
		Unconfirmed:      s.unconfirmed.Load(),
		UnknownResponses: s.unknownResponses.Load(),
		Pending:          s.Pending(),
	}
}

func (s *Subsystem) handleRadarTriggered(ctx context.Context, e events.RadarTriggered) error {
	s.triggers.Add(1)

	considered := ConsideredSpeed(e.MeasuredSpeed)
	if !IsSpeeding(considered, e.MaximumSpeed) {
		s.belowThreshold.Add(1)
		s.logger.Debug("trigger below threshold",
			"equipment", e.EquipmentID,
			"measured", e.MeasuredSpeed,
			"considered", considered,
			"maximum", e.MaximumSpeed)
		return nil
	}

	requestID := s.nextID()

	// The request must be stored before publishing: a recognizer on the
	// same bus replies from inside Publish.
	s.mu.Lock()
	bus := s.bus
	if bus == nil {
		s.mu.Unlock()
		return nil
	}
	if _, exists := s.pending[requestID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, requestID)
	}
	s.pending[requestID] = pendingRequest{
		triggeredAt:     e.TriggeredAt,
		measuredSpeed:   e.MeasuredSpeed,
		maximumSpeed:    e.MaximumSpeed,
		consideredSpeed: considered,
		equipmentID:     e.EquipmentID,
	}
	s.mu.Unlock()

	s.requested.Add(1)
	s.logger.Info("requesting plate parsing",
		"request", requestID,
		"equipment", e.EquipmentID,
		"considered", considered,
		"maximum", e.MaximumSpeed)

	return bus.Publish(ctx, events.ParsingRequested{
		RequestID: requestID,
		RawPhoto:  e.RawPhoto,
	})
}

func (s *Subsystem) handleParsingCompleted(ctx context.Context, e events.ParsingCompleted) error {
	s.mu.Lock()
	bus := s.bus
	req, ok := s.pending[e.RequestID]
	if ok {
		delete(s.pending, e.RequestID)
	}
	s.mu.Unlock()

	if !ok {
		s.unknownResponses.Add(1)
		s.logger.Debug("ignoring reply to unknown request", "request", e.RequestID)
		if s.strict {
			return fmt.Errorf("%w: %s", ErrUnknownRequest, e.RequestID)
		}
		return nil
	}

	plate, ok := Disambiguate(e.Results)
	if !ok {
		s.unconfirmed.Add(1)
		s.logger.Info("no unambiguous plate",
			"request", e.RequestID, "readings", len(e.Results))
		return nil
	}

	s.confirmed.Add(1)
	s.logger.Info("infraction confirmed",
		"request", e.RequestID,
		"plate", plate,
		"equipment", req.equipmentID,
		"considered", req.consideredSpeed,
		"maximum", req.maximumSpeed)

	return bus.Publish(ctx, events.InfractionConfirmed{
		PlateNumber:     plate,
		TriggeredAt:     req.triggeredAt,
		MeasuredSpeed:   req.measuredSpeed,
		ConsideredSpeed: req.consideredSpeed,
		MaximumSpeed:    req.maximumSpeed,
		EquipmentID:     req.equipmentID,
	})
}
