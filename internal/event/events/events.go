package events

import (
	"time"

	"github.com/katalan/katalan/internal/event/topic"
)

// Event topics.
const (
	// TopicRadarTriggered is published by a radar for every measurement.
	TopicRadarTriggered topic.Topic = "radar.triggered"

	// TopicParsingRequested is published when a photo needs plate recognition.
	TopicParsingRequested topic.Topic = "parsing.requested"

	// TopicParsingCompleted is published by the recognizer in reply to a request.
	TopicParsingCompleted topic.Topic = "parsing.completed"

	// TopicInfractionConfirmed is published when an infraction is confirmed.
	TopicInfractionConfirmed topic.Topic = "infraction.confirmed"
)

// Topics returns every topic an Event can be published on.
func Topics() []topic.Topic {
	return []topic.Topic{
		TopicRadarTriggered,
		TopicParsingRequested,
		TopicParsingCompleted,
		TopicInfractionConfirmed,
	}
}

// Event is implemented by the variants of this package only.
type Event interface {
	// EventTopic returns the routing discriminator of the variant.
	EventTopic() topic.Topic

	event()
}

// RadarTriggered is published when a radar measures a vehicle.
type RadarTriggered struct {
	// EquipmentID identifies the radar.
	EquipmentID string

	// TriggeredAt is when the measurement was taken.
	TriggeredAt time.Time

	// MeasuredSpeed is the raw speed reading.
	MeasuredSpeed int

	// MaximumSpeed is the speed limit enforced by the radar.
	MaximumSpeed int

	// RawPhoto is the photo taken at trigger time.
	RawPhoto []byte
}

// EventTopic implements Event.
func (RadarTriggered) EventTopic() topic.Topic { return TopicRadarTriggered }

func (RadarTriggered) event() {}

// ParsingRequested asks the recognizer to read plate numbers from a photo.
type ParsingRequested struct {
	// RequestID correlates the request with its ParsingCompleted reply.
	RequestID string

	// RawPhoto is forwarded verbatim from the RadarTriggered event.
	RawPhoto []byte
}

// EventTopic implements Event.
func (ParsingRequested) EventTopic() topic.Topic { return TopicParsingRequested }

func (ParsingRequested) event() {}

// PlateReading is one candidate plate number found on a photo.
type PlateReading struct {
	// PlateNumber is the recognized text.
	PlateNumber string

	// Confidence is the recognizer's confidence, in [0, 1].
	Confidence float64
}

// ParsingCompleted is the recognizer's reply to a ParsingRequested event.
type ParsingCompleted struct {
	// RequestID is the identifier of the request being answered.
	RequestID string

	// Results holds zero or more candidate readings.
	Results []PlateReading
}

// EventTopic implements Event.
func (ParsingCompleted) EventTopic() topic.Topic { return TopicParsingCompleted }

func (ParsingCompleted) event() {}

// InfractionConfirmed is published once a speeding vehicle has been identified.
type InfractionConfirmed struct {
	// PlateNumber is the unambiguous plate of the vehicle.
	PlateNumber string

	// TriggeredAt is when the radar measured the vehicle.
	TriggeredAt time.Time

	// MeasuredSpeed is the raw speed reading.
	MeasuredSpeed int

	// ConsideredSpeed is the measured speed after the error margin.
	ConsideredSpeed int

	// MaximumSpeed is the speed limit enforced by the radar.
	MaximumSpeed int

	// EquipmentID identifies the radar.
	EquipmentID string
}

// EventTopic implements Event.
func (InfractionConfirmed) EventTopic() topic.Topic { return TopicInfractionConfirmed }

func (InfractionConfirmed) event() {}
