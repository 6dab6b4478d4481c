package event

import (
	"sync/atomic"

	"github.com/katalan/katalan/internal/event/topic"
)

// Subscription is the registration token returned by Subscribe.
// It is the only handle Unsubscribe accepts.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic.
	Topic() topic.Topic

	// IsActive returns true until the subscription is removed from its bus.
	IsActive() bool
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id        string
	topic     topic.Topic
	handler   Handler
	cancelled atomic.Bool
}

func newSubscription(id string, t topic.Topic, h Handler) *subscription {
	return &subscription{
		id:      id,
		topic:   t,
		handler: h,
	}
}

// ID returns the subscription ID.
func (s *subscription) ID() string {
	return s.id
}

// Topic returns the subscribed topic.
func (s *subscription) Topic() topic.Topic {
	return s.topic
}

// Handler returns the subscription's handler.
func (s *subscription) Handler() Handler {
	return s.handler
}

// IsActive returns true if the subscription has not been cancelled.
func (s *subscription) IsActive() bool {
	return !s.cancelled.Load()
}

func (s *subscription) cancel() {
	s.cancelled.Store(true)
}
