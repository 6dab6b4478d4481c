package event

import (
	"io"
	"log/slog"
)

// DefaultMaxDepth is the default limit on nested Publish calls.
const DefaultMaxDepth = 32

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// maxDepth bounds re-entrant publishing.
	maxDepth int

	logger *slog.Logger
}

func defaultBusConfig() busConfig {
	return busConfig{
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithMaxDepth sets how deeply handlers may nest Publish calls.
func WithMaxDepth(depth int) BusOption {
	return func(c *busConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used for bus diagnostics.
func WithLogger(logger *slog.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
