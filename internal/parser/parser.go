// Package parser provides a simulated license-plate recognizer.
//
// The recognizer answers parsing.requested events with parsing.completed
// events carrying readings configured in advance for a given photo.
package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

// ErrAlreadyAttached is returned when attaching a parser that is already on a bus.
var ErrAlreadyAttached = errors.New("parser is already attached to a bus")

// Parser replies to parsing requests with pre-configured readings.
type Parser struct {
	mu       sync.Mutex
	replies  map[string][]events.PlateReading
	requests []string
	bus      event.Bus
	sub      event.Subscription
	logger   *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used by the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a detached parser with no configured replies.
func New(opts ...Option) *Parser {
	p := &Parser{
		replies: make(map[string][]events.PlateReading),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// On configures the readings returned for a photo. An empty readings slice
// is a valid reply meaning nothing was found; photos never configured get
// no reply at all.
func (p *Parser) On(rawPhoto []byte, readings []events.PlateReading) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[string(rawPhoto)] = slices.Clone(readings)
}

// Attach subscribes the parser to parsing requests on bus.
func (p *Parser) Attach(bus event.Bus) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bus != nil {
		return ErrAlreadyAttached
	}

	sub, err := bus.Subscribe(events.TopicParsingRequested, p)
	if err != nil {
		return err
	}
	p.bus = bus
	p.sub = sub
	return nil
}

// Detach unsubscribes the parser. Detaching a detached parser does nothing.
func (p *Parser) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bus == nil {
		return
	}
	p.bus.Unsubscribe(p.sub)
	p.bus = nil
	p.sub = nil
}

// Requests returns the ids of every request received, in arrival order.
func (p *Parser) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.requests)
}

// Handle implements event.Handler.
func (p *Parser) Handle(ctx context.Context, evt any) error {
	req, ok := evt.(events.ParsingRequested)
	if !ok {
		return nil
	}

	p.mu.Lock()
	p.requests = append(p.requests, req.RequestID)
	readings, configured := p.replies[string(req.RawPhoto)]
	bus := p.bus
	p.mu.Unlock()

	if !configured || bus == nil {
		p.logger.Debug("no reply configured for photo", "request", req.RequestID)
		return nil
	}

	return bus.Publish(ctx, events.ParsingCompleted{
		RequestID: req.RequestID,
		Results:   slices.Clone(readings),
	})
}
