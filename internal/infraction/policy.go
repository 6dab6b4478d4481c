package infraction

import "github.com/katalan/katalan/internal/event/events"

// Policy parameters.
const (
	// ErrorMargin is applied to every measured speed to absorb radar
	// measurement uncertainty.
	ErrorMargin = 0.9

	// RelevanceThreshold is the minimum confidence for a plate reading to be
	// considered at all. Readings below it are noise.
	RelevanceThreshold = 0.3

	// ConfidenceRequirement is the minimum confidence for the single relevant
	// reading to be confirmed.
	ConfidenceRequirement = 0.9
)

// ConsideredSpeed returns the measured speed reduced by ErrorMargin,
// truncated toward zero.
func ConsideredSpeed(measuredSpeed int) int {
	return int(float64(measuredSpeed) * ErrorMargin)
}

// IsSpeeding reports whether a considered speed is an infraction for the
// given limit. Driving exactly at the limit is not.
func IsSpeeding(consideredSpeed, maximumSpeed int) bool {
	return consideredSpeed > maximumSpeed
}

// Disambiguate returns the plate number when the readings name exactly one
// vehicle with enough confidence.
//
// Readings below RelevanceThreshold are discarded first. Then:
//   - no relevant reading: nothing legible
//   - one relevant reading: accepted if at least ConfidenceRequirement
//   - several relevant readings: ambiguous, never accepted
func Disambiguate(readings []events.PlateReading) (string, bool) {
	var relevant []events.PlateReading
	for _, r := range readings {
		if r.Confidence >= RelevanceThreshold {
			relevant = append(relevant, r)
		}
	}

	switch len(relevant) {
	case 0:
		return "", false
	case 1:
		if relevant[0].Confidence >= ConfidenceRequirement {
			return relevant[0].PlateNumber, true
		}
		return "", false
	default:
		return "", false
	}
}
