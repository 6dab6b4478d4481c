package infraction

import "errors"

// Errors returned by the subsystem.
var (
	// ErrConfiguration is returned when plugging a subsystem that is already
	// plugged to a bus.
	ErrConfiguration = errors.New("infraction subsystem is already plugged to a bus")

	// ErrPendingBusInteraction is returned when unplugging while parsing
	// requests are still awaiting a reply.
	ErrPendingBusInteraction = errors.New("parsing requests are still pending")

	// ErrUnknownRequest is returned under strict correlation when a reply
	// names a request id that is not pending.
	ErrUnknownRequest = errors.New("unknown parsing request")

	// ErrDuplicateRequest is returned when the id generator hands out an id
	// that is already pending.
	ErrDuplicateRequest = errors.New("duplicate parsing request id")

	// ErrNilBus is returned when PlugToBus is given a nil bus.
	ErrNilBus = errors.New("bus cannot be nil")
)
