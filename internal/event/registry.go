package event

import (
	"reflect"
	"slices"
	"sync"

	"github.com/katalan/katalan/internal/event/topic"
)

// Registry manages subscriptions organized by topic.
// It is thread-safe for concurrent access.
type Registry struct {
	mu   sync.RWMutex
	subs map[topic.Topic][]*subscription
	byID map[string]*subscription
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[topic.Topic][]*subscription),
		byID: make(map[string]*subscription),
	}
}

// Add registers a subscription under its topic.
// If the same pointer handler is already registered on that topic, the
// existing subscription is returned instead and added is false.
func (r *Registry) Add(sub *subscription) (registered *subscription, added bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs[sub.Topic()] {
		if sameHandler(s.Handler(), sub.Handler()) {
			return s, false
		}
	}

	r.subs[sub.Topic()] = append(r.subs[sub.Topic()], sub)
	r.byID[sub.ID()] = sub
	return sub, true
}

// Remove removes a subscription by ID.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}

	t := sub.Topic()
	subs := r.subs[t]
	for i, s := range subs {
		if s.ID() == subID {
			r.subs[t] = slices.Delete(subs, i, i+1)
			break
		}
	}

	if len(r.subs[t]) == 0 {
		delete(r.subs, t)
	}
	delete(r.byID, subID)
	sub.cancel()

	return true
}

// Match returns the subscriptions registered for the given topic.
// Returns a copy to prevent modification during iteration.
func (r *Registry) Match(t topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subs[t]
	if len(subs) == 0 {
		return nil
	}

	result := make([]*subscription, len(subs))
	copy(result, subs)
	return result
}

// Count returns the total number of subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// sameHandler reports whether two handlers share an identity.
// Only pointer handlers have one; funcs and values never compare equal.
func sameHandler(a, b Handler) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || ta.Kind() != reflect.Pointer {
		return false
	}
	return a == b
}
