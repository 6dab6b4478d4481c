package infraction

import (
	"log/slog"

	"github.com/google/uuid"
)

// Option configures a Subsystem.
type Option func(*Subsystem)

// WithLogger sets the logger used by the subsystem.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Subsystem) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestIDs replaces the request id generator. The generator must
// return a value never returned before.
func WithRequestIDs(next func() string) Option {
	return func(s *Subsystem) {
		if next != nil {
			s.nextID = next
		}
	}
}

// WithStrictCorrelation makes replies to unknown request ids fail with
// ErrUnknownRequest instead of being ignored.
func WithStrictCorrelation() Option {
	return func(s *Subsystem) {
		s.strict = true
	}
}

func defaultRequestID() string {
	return uuid.NewString()
}
