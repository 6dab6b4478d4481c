package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/katalan/katalan/internal/config/loader"
)

// Default values.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultTimeZone     = "UTC"
	DefaultMaximumSpeed = 50
	DefaultMaxDepth     = 32
)

// Config holds every katalan setting.
type Config struct {
	Logging    Logging    `toml:"logging"`
	Clock      Clock      `toml:"clock"`
	Radar      Radar      `toml:"radar"`
	Bus        Bus        `toml:"bus"`
	Infraction Infraction `toml:"infraction"`
}

// Logging configures the process logger.
type Logging struct {
	// Level is one of debug, info, warn, error. Case is ignored and
	// "warning" is accepted for warn.
	Level string `toml:"level"`
	// Format is text or json, case-insensitive.
	Format string `toml:"format"`
}

// Clock configures how timestamps are interpreted.
type Clock struct {
	// TimeZone is an IANA zone name; trigger timestamps are expressed in it.
	TimeZone string `toml:"time_zone"`
}

// Radar holds defaults for radars created without explicit settings.
type Radar struct {
	EquipmentID  string `toml:"equipment_id"`
	MaximumSpeed int    `toml:"maximum_speed"`
}

// Bus configures the event bus.
type Bus struct {
	// MaxDepth bounds nested publishes from inside handlers.
	MaxDepth int `toml:"max_depth"`
}

// Infraction configures the infraction subsystem.
type Infraction struct {
	// StrictCorrelation makes replies to unknown requests an error.
	StrictCorrelation bool `toml:"strict_correlation"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Clock: Clock{
			TimeZone: DefaultTimeZone,
		},
		Radar: Radar{
			MaximumSpeed: DefaultMaximumSpeed,
		},
		Bus: Bus{
			MaxDepth: DefaultMaxDepth,
		},
	}
}

// Load reads path (a missing file is not an error), applies the default
// environment overrides, and validates the result.
func Load(path string) (Config, error) {
	var file loader.Loader
	if path != "" {
		file = loader.NewTOMLLoader(path)
	}
	return LoadFrom(file, loader.NewEnvLoader())
}

// LoadFrom merges the given loaders over the defaults in order, later
// loaders overriding earlier ones. Nil loaders are skipped.
func LoadFrom(loaders ...loader.Loader) (Config, error) {
	merged := make(map[string]any)
	for _, l := range loaders {
		if l == nil {
			continue
		}
		data, err := l.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, data)
	}

	cfg, err := decode(merged)
	if err != nil {
		return Config{}, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays a raw settings tree on the defaults.
func decode(data map[string]any) (Config, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}

	raw, err := toml.Marshal(data)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Normalize rewrites settings with accepted aliases to their canonical form.
func (c *Config) Normalize() {
	c.Logging.Level = normalizeLevel(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

func normalizeLevel(level string) string {
	level = strings.ToLower(level)
	if level == "warning" {
		return "warn"
	}
	return level
}

// Validate checks every setting and reports all problems at once.
// Aliases accepted by Normalize are valid.
func (c Config) Validate() error {
	verr := &ValidationError{}

	switch normalizeLevel(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		verr.add("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		verr.add("logging.format", c.Logging.Format, "must be text or json")
	}

	if _, err := time.LoadLocation(c.Clock.TimeZone); err != nil {
		verr.add("clock.time_zone", c.Clock.TimeZone, "unknown time zone")
	}

	if c.Radar.MaximumSpeed < 0 {
		verr.add("radar.maximum_speed", c.Radar.MaximumSpeed, "must not be negative")
	}

	if c.Bus.MaxDepth <= 0 {
		verr.add("bus.max_depth", c.Bus.MaxDepth, "must be positive")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Location returns the configured time zone, or UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Clock.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
