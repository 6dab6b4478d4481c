// Package radar provides a simulated speed radar.
//
// Real radars are not owned by katalan; they only publish measurements. A
// Radar stands in for one so that scenarios and tests can drive the bus.
package radar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
)

// Radar publishes radar.triggered events for a single piece of equipment.
type Radar struct {
	pub         event.Publisher
	equipmentID string
	location    *time.Location
	now         func() time.Time

	mu           sync.RWMutex
	maximumSpeed int
}

// Option configures a Radar.
type Option func(*Radar)

// WithEquipmentID sets the equipment identifier. Defaults to radar_<uuid>.
func WithEquipmentID(id string) Option {
	return func(r *Radar) {
		if id != "" {
			r.equipmentID = id
		}
	}
}

// WithLocation sets the time zone trigger timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Radar) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock replaces the clock used by Trigger.
func WithClock(now func() time.Time) Option {
	return func(r *Radar) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a radar enforcing maximumSpeed that publishes on pub.
func New(pub event.Publisher, maximumSpeed int, opts ...Option) *Radar {
	r := &Radar{
		pub:          pub,
		equipmentID:  "radar_" + uuid.NewString(),
		location:     time.UTC,
		now:          time.Now,
		maximumSpeed: maximumSpeed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EquipmentID returns the radar's equipment identifier.
func (r *Radar) EquipmentID() string {
	return r.equipmentID
}

// MaximumSpeed returns the enforced speed limit.
func (r *Radar) MaximumSpeed() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maximumSpeed
}

// SetMaximumSpeed changes the enforced speed limit for later triggers.
func (r *Radar) SetMaximumSpeed(speed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maximumSpeed = speed
}

// Trigger publishes a measurement taken now.
func (r *Radar) Trigger(ctx context.Context, measuredSpeed int, rawPhoto []byte) error {
	return r.TriggerAt(ctx, measuredSpeed, rawPhoto, r.now())
}

// TriggerAt publishes a measurement taken at the given time.
// Whatever the publish path returns, including handler errors, is returned.
func (r *Radar) TriggerAt(ctx context.Context, measuredSpeed int, rawPhoto []byte, at time.Time) error {
	return r.pub.Publish(ctx, events.RadarTriggered{
		EquipmentID:   r.equipmentID,
		TriggeredAt:   at.In(r.location),
		MeasuredSpeed: measuredSpeed,
		MaximumSpeed:  r.MaximumSpeed(),
		RawPhoto:      rawPhoto,
	})
}
