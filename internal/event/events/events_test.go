package events

import (
	"testing"

	"github.com/katalan/katalan/internal/event/topic"
)

func TestEvent_Topics(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  topic.Topic
	}{
		{"radar triggered", RadarTriggered{}, TopicRadarTriggered},
		{"parsing requested", ParsingRequested{}, TopicParsingRequested},
		{"parsing completed", ParsingCompleted{}, TopicParsingCompleted},
		{"infraction confirmed", InfractionConfirmed{}, TopicInfractionConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.EventTopic(); got != tt.want {
				t.Errorf("EventTopic() = %q, want %q", got, tt.want)
			}
			if !tt.event.EventTopic().IsValid() {
				t.Errorf("topic %q is not valid", tt.event.EventTopic())
			}
		})
	}
}

func TestTopics_Distinct(t *testing.T) {
	all := Topics()
	if len(all) != 4 {
		t.Fatalf("expected 4 topics, got %d", len(all))
	}

	seen := make(map[topic.Topic]bool)
	for _, tp := range all {
		if seen[tp] {
			t.Errorf("duplicate topic %q", tp)
		}
		seen[tp] = true
	}
}
