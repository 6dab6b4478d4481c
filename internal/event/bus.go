package event

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/katalan/katalan/internal/event/topic"
)

// Bus is the central event bus interface.
type Bus interface {
	Publisher

	// Subscription
	Subscribe(t topic.Topic, handler Handler) (Subscription, error)
	SubscribeFunc(t topic.Topic, fn HandlerFunc) (Subscription, error)
	Unsubscribe(sub Subscription) bool

	// Status
	Stats() Stats
}

// bus is the default Bus implementation.
type bus struct {
	registry *Registry
	config   busConfig

	eventsPublished  atomic.Uint64
	eventsUnrouted   atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	depthExceeded    atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &bus{
		registry: NewRegistry(),
		config:   config,
	}
}

// Publish delivers an event to every handler subscribed to its topic.
// It blocks until the handlers return and stops at the first error.
// The event must be a non-pointer value reporting a valid topic.
func (b *bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || !tp.EventTopic().IsValid() {
		return ErrInvalidEvent
	}
	// Events are published by value; typed handlers would skip pointers.
	if reflect.TypeOf(event).Kind() == reflect.Pointer {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()

	depth := publishDepth(ctx)
	if depth >= b.config.maxDepth {
		b.depthExceeded.Add(1)
		return fmt.Errorf("%w: %s at depth %d", ErrMaxDepthExceeded, t, depth)
	}

	b.eventsPublished.Add(1)

	subs := b.registry.Match(t)
	if len(subs) == 0 {
		b.eventsUnrouted.Add(1)
		b.config.logger.Debug("event has no subscribers", "topic", t)
		return nil
	}

	ctx = withPublishDepth(ctx, depth+1)
	for _, sub := range subs {
		// A handler earlier in this fan-out may have unsubscribed it.
		if !sub.IsActive() {
			continue
		}

		b.handlersExecuted.Add(1)
		if err := sub.Handler().Handle(ctx, event); err != nil {
			b.handlerErrors.Add(1)
			b.config.logger.Debug("handler failed",
				"topic", t, "subscription", sub.ID(), "err", err)
			return &HandlerError{
				SubscriptionID: sub.ID(),
				Topic:          t.String(),
				Err:            err,
			}
		}
	}

	return nil
}

// Subscribe registers a handler for the given topic.
// This method is safe to call concurrently.
func (b *bus) Subscribe(t topic.Topic, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !t.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub, added := b.registry.Add(newSubscription(uuid.NewString(), t, handler))
	if added {
		b.config.logger.Debug("subscribed", "topic", t, "subscription", sub.ID())
	}
	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *bus) SubscribeFunc(t topic.Topic, fn HandlerFunc) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(t, fn)
}

// Unsubscribe removes a subscription.
// Unknown or already removed subscriptions are ignored; the result reports
// whether anything was removed.
func (b *bus) Unsubscribe(sub Subscription) bool {
	if sub == nil {
		return false
	}

	removed := b.registry.Remove(sub.ID())
	if removed {
		b.config.logger.Debug("unsubscribed", "topic", sub.Topic(), "subscription", sub.ID())
	}
	return removed
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsUnrouted:    b.eventsUnrouted.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		DepthExceeded:     b.depthExceeded.Load(),
		ActiveSubscribers: b.registry.Count(),
	}
}

type depthKey struct{}

func publishDepth(ctx context.Context) int {
	depth, _ := ctx.Value(depthKey{}).(int)
	return depth
}

func withPublishDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}
