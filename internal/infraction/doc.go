// Package infraction decides when a radar measurement becomes a confirmed
// speeding infraction.
//
// A Subsystem plugs into an event bus and consumes two event kinds:
//
//  1. radar.triggered: the measured speed is reduced by ErrorMargin. If the
//     resulting considered speed is strictly above the limit, a pending
//     request is stored under a fresh request id and parsing.requested is
//     published with the photo.
//  2. parsing.completed: the pending request with the same id is consumed
//     (exactly once) and the readings are disambiguated. A single confident
//     plate produces infraction.confirmed.
//
// Replies to unknown or already consumed request ids are ignored by default.
// WithStrictCorrelation turns them into ErrUnknownRequest.
//
// Requests that never get a reply stay pending until UnplugFromBus is
// called with dropPending set.
package infraction
