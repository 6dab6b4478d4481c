// Package history records every event published on a bus.
//
// A Recorder is the test harness of the pipeline: attach it before driving
// a scenario, then assert on what was published.
package history

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
	"github.com/katalan/katalan/internal/event/topic"
)

// ErrAlreadyAttached is returned when attaching a recorder that is already on a bus.
var ErrAlreadyAttached = errors.New("recorder is already attached to a bus")

// Recorder stores events in the order they were published.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
	bus    event.Bus
	subs   []event.Subscription
}

// NewRecorder creates a detached, empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach subscribes the recorder to every event topic on bus.
func (r *Recorder) Attach(bus event.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bus != nil {
		return ErrAlreadyAttached
	}

	for _, t := range events.Topics() {
		sub, err := bus.Subscribe(t, r)
		if err != nil {
			for _, s := range r.subs {
				bus.Unsubscribe(s)
			}
			r.subs = nil
			return err
		}
		r.subs = append(r.subs, sub)
	}
	r.bus = bus
	return nil
}

// Detach unsubscribes the recorder. Recorded events are kept.
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bus == nil {
		return
	}
	for _, s := range r.subs {
		r.bus.Unsubscribe(s)
	}
	r.subs = nil
	r.bus = nil
}

// Handle implements event.Handler. Only event values are recorded.
func (r *Recorder) Handle(ctx context.Context, evt any) error {
	e, ok := evt.(events.Event)
	if !ok || reflect.TypeOf(evt).Kind() == reflect.Pointer {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns the recorded events published on any of the given topics,
// or every recorded event when no topic is given.
func (r *Recorder) Events(topics ...topic.Topic) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(topics) == 0 {
		return slices.Clone(r.events)
	}

	var out []events.Event
	for _, e := range r.events {
		if slices.Contains(topics, e.EventTopic()) {
			out = append(out, e)
		}
	}
	return out
}

// Infractions returns the recorded infraction.confirmed events.
func (r *Recorder) Infractions() []events.InfractionConfirmed {
	var out []events.InfractionConfirmed
	for _, e := range r.Events(events.TopicInfractionConfirmed) {
		if ic, ok := e.(events.InfractionConfirmed); ok {
			out = append(out, ic)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Clear discards recorded events.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
