// Package topic provides the discriminator type used to route events on the bus.
//
// A topic is a dot-separated name of the form <source>.<action>:
//
//	radar.triggered
//	parsing.requested
//	parsing.completed
//	infraction.confirmed
//
// Routing is by exact topic equality. There are no wildcards: every
// subscriber names the single event kind it consumes.
package topic
