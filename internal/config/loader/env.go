package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables.
// Only variables listed in its mapping are read.
type EnvLoader struct {
	mapping  map[string]string // Env var -> config path
	verbatim map[string]bool   // Config paths never converted from string
	lookup   func(string) (string, bool)
}

// NewEnvLoader creates an environment loader with the default katalan mapping.
func NewEnvLoader() *EnvLoader {
	return NewEnvLoaderWithMapping(DefaultEnvMapping(), DefaultStringPaths()...)
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable
// mappings. Values for stringPaths are kept verbatim; all others are
// converted to bool, int or float when they parse as such.
func NewEnvLoaderWithMapping(mapping map[string]string, stringPaths ...string) *EnvLoader {
	l := &EnvLoader{
		mapping:  mapping,
		verbatim: make(map[string]bool, len(stringPaths)),
		lookup:   os.LookupEnv,
	}
	for _, p := range stringPaths {
		l.verbatim[p] = true
	}
	return l
}

// DefaultEnvMapping returns the default environment variable mappings.
func DefaultEnvMapping() map[string]string {
	return map[string]string{
		"KATALAN_LOG_LEVEL":           "logging.level",
		"KATALAN_LOG_FORMAT":          "logging.format",
		"KATALAN_TIME_ZONE":           "clock.time_zone",
		"KATALAN_RADAR_EQUIPMENT_ID":  "radar.equipment_id",
		"KATALAN_RADAR_MAXIMUM_SPEED": "radar.maximum_speed",
		"KATALAN_BUS_MAX_DEPTH":       "bus.max_depth",
		"KATALAN_STRICT_CORRELATION":  "infraction.strict_correlation",
	}
}

// DefaultStringPaths returns the settings whose values are always strings.
func DefaultStringPaths() []string {
	return []string{
		"logging.level",
		"logging.format",
		"clock.time_zone",
		"radar.equipment_id",
	}
}

// Load reads the mapped environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		val, ok := l.lookup(env)
		if !ok {
			continue
		}
		if l.verbatim[path] {
			setByPath(config, path, val)
		} else {
			setByPath(config, path, parseValue(val))
		}
	}

	return config, nil
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only try floats with a decimal point so ints stay ints.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
