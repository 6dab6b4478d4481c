// Package scenario drives the enforcement pipeline from a TOML description.
//
// A scenario declares a radar, the readings the simulated plate recognizer
// returns for each photo, and the measurements to feed the radar:
//
//	[radar]
//	equipment_id = "A7-north"
//	maximum_speed = 130
//
//	[[reply]]
//	photo = "car-1.jpg"
//	  [[reply.plates]]
//	  plate = "AB123CD"
//	  confidence = 0.9
//
//	[[trigger]]
//	measured_speed = 150
//	photo = "car-1.jpg"
//	triggered_at = 2024-03-01T08:30:00Z
//
// Photos are opaque; their text is used as the raw photo bytes. A photo with
// no reply entry gets no answer from the recognizer.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/katalan/katalan/internal/config/loader"
	"github.com/katalan/katalan/internal/event/events"
)

// ErrInvalidScenario is wrapped by every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a parsed scenario file.
type Scenario struct {
	Radar    RadarSettings `toml:"radar"`
	Replies  []Reply       `toml:"reply"`
	Triggers []Trigger     `toml:"trigger"`
}

// RadarSettings overrides the configured radar defaults.
type RadarSettings struct {
	EquipmentID string `toml:"equipment_id"`
	// MaximumSpeed is nil when the configured default applies.
	MaximumSpeed *int `toml:"maximum_speed"`
}

// Reply is what the recognizer answers for one photo.
type Reply struct {
	Photo  string  `toml:"photo"`
	Plates []Plate `toml:"plates"`
}

// Plate is one recognizer reading.
type Plate struct {
	Plate      string  `toml:"plate"`
	Confidence float64 `toml:"confidence"`
}

// Trigger is one radar measurement.
type Trigger struct {
	MeasuredSpeed int    `toml:"measured_speed"`
	Photo         string `toml:"photo"`
	// MaximumSpeed changes the radar limit from this trigger on.
	MaximumSpeed *int `toml:"maximum_speed"`
	// TriggeredAt is nil when the measurement is taken at the current time.
	TriggeredAt *time.Time `toml:"triggered_at"`
}

// Readings converts the reply plates to event readings.
func (r Reply) Readings() []events.PlateReading {
	out := make([]events.PlateReading, len(r.Plates))
	for i, p := range r.Plates {
		out[i] = events.PlateReading{PlateNumber: p.Plate, Confidence: p.Confidence}
	}
	return out
}

// Parse decodes and validates a scenario. Unknown keys are rejected.
// source names the input in error messages.
func Parse(source string, r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, loader.NewParseError(source, err)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &sc, nil
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS reads and parses a scenario file from fsys.
func LoadFS(fsys loader.FileSystem, path string) (*Scenario, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return Parse(path, bytes.NewReader(data))
}

// Validate checks the scenario for values the pipeline cannot use.
func (sc *Scenario) Validate() error {
	if sc.Radar.MaximumSpeed != nil && *sc.Radar.MaximumSpeed < 0 {
		return fmt.Errorf("%w: radar maximum_speed %d is negative", ErrInvalidScenario, *sc.Radar.MaximumSpeed)
	}

	seen := make(map[string]bool, len(sc.Replies))
	for i, r := range sc.Replies {
		if seen[r.Photo] {
			return fmt.Errorf("%w: reply %d: duplicate photo %q", ErrInvalidScenario, i+1, r.Photo)
		}
		seen[r.Photo] = true

		for j, p := range r.Plates {
			if p.Plate == "" {
				return fmt.Errorf("%w: reply %d plate %d: empty plate", ErrInvalidScenario, i+1, j+1)
			}
			if p.Confidence < 0 || p.Confidence > 1 {
				return fmt.Errorf("%w: reply %d plate %d: confidence %v outside [0, 1]",
					ErrInvalidScenario, i+1, j+1, p.Confidence)
			}
		}
	}

	for i, t := range sc.Triggers {
		if t.MeasuredSpeed < 0 {
			return fmt.Errorf("%w: trigger %d: measured_speed %d is negative", ErrInvalidScenario, i+1, t.MeasuredSpeed)
		}
		if t.MaximumSpeed != nil && *t.MaximumSpeed < 0 {
			return fmt.Errorf("%w: trigger %d: maximum_speed %d is negative", ErrInvalidScenario, i+1, *t.MaximumSpeed)
		}
	}
	return nil
}
