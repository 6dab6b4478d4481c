// Package event provides the in-process event bus for katalan.
//
// The bus decouples publishers from subscribers: a radar does not know the
// infraction subsystem exists, and the subsystem does not know which
// recognizer answers its parsing requests. Every component talks to the bus.
//
// # Topics
//
// Each event reports its discriminator through TopicProvider and is
// published by value; Publish rejects pointers with ErrInvalidEvent. Subscribers
// register for one exact topic (see package topic and package events).
//
// # Delivery
//
// Delivery is synchronous. Publish invokes every handler subscribed to the
// event's topic in the publisher's goroutine and returns when the last one
// returns. A handler may publish further events; the nested Publish runs to
// completion before the outer fan-out continues. Nesting depth is bounded
// by WithMaxDepth so that a cyclic event graph fails with
// ErrMaxDepthExceeded instead of overflowing the stack.
//
// Handlers for a topic run in the order they subscribed.
//
// # Failures
//
// The bus does not isolate handlers. The first handler error aborts the
// remaining fan-out and is returned from Publish as a *HandlerError. Panics
// are not recovered.
//
// # Subscriptions
//
// Subscribe returns a Subscription token. The token, not the handler, is
// what Unsubscribe takes, so a component must keep the tokens it was given.
// Subscribing the same pointer handler twice on a topic returns the
// existing token; unsubscribing a token twice is a no-op.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	sub, err := bus.Subscribe(events.TopicInfractionConfirmed,
//	    event.AsHandlerFunc(func(ctx context.Context, e events.InfractionConfirmed) error {
//	        fmt.Println("speeding:", e.PlateNumber)
//	        return nil
//	    }))
//	defer bus.Unsubscribe(sub)
//
//	err = bus.Publish(ctx, events.RadarTriggered{...})
//
// # Thread Safety
//
// The Bus is safe for concurrent use. The registry lock is never held while
// handlers run, so handlers may subscribe, unsubscribe and publish.
package event
