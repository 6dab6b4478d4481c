package event

import (
	"context"

	"github.com/katalan/katalan/internal/event/topic"
)

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event.
	// The event parameter is type-erased; handlers should type-assert.
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// TypedHandlerFunc handles a single concrete event type.
type TypedHandlerFunc[T any] func(ctx context.Context, event T) error

// AsHandlerFunc converts a TypedHandlerFunc to a generic Handler.
// Events of any other type are skipped silently.
func AsHandlerFunc[T any](fn TypedHandlerFunc[T]) Handler {
	return HandlerFunc(func(ctx context.Context, event any) error {
		if e, ok := event.(T); ok {
			return fn(ctx, e)
		}
		return nil
	})
}

// TopicProvider is implemented by anything that can be published.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// Publisher is the publishing half of a Bus.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the number of events accepted by Publish.
	EventsPublished uint64

	// EventsUnrouted is the number of published events no handler was subscribed to.
	EventsUnrouted uint64

	// HandlersExecuted is the total number of handler invocations.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// DepthExceeded is the number of publishes rejected by the nesting guard.
	DepthExceeded uint64

	// ActiveSubscribers is the current number of subscriptions.
	ActiveSubscribers int
}
