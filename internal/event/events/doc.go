// Package events defines the event variants that travel on the katalan bus.
//
// The set is closed: Event carries an unexported method, so only the four
// variants declared here can be published as events. Each variant has a
// topic constant that the bus uses for routing:
//
//   - RadarTriggered      (radar.triggered)      - a radar measured a vehicle
//   - ParsingRequested    (parsing.requested)    - plate recognition is needed
//   - ParsingCompleted    (parsing.completed)    - the recognizer answered
//   - InfractionConfirmed (infraction.confirmed) - an unambiguous plate was over the limit
//
// Events are values. Byte and slice fields are shared with the publisher and
// must not be modified once the event has been published.
//
// Listeners that accept more than one variant should switch exhaustively:
//
//	switch e := evt.(type) {
//	case events.RadarTriggered:
//	case events.ParsingRequested:
//	case events.ParsingCompleted:
//	case events.InfractionConfirmed:
//	}
package events
