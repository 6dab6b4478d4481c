package topic

import "strings"

// Topic identifies an event kind using dot notation.
// Examples: "radar.triggered", "infraction.confirmed"
type Topic string

// Separator is the character used to separate topic segments.
const Separator = "."

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsValid returns true if the topic is valid.
// A valid topic:
//   - Is not empty
//   - Has no empty segments (no leading, trailing or doubled separators)
//   - Contains no whitespace
func (t Topic) IsValid() bool {
	s := string(t)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}
