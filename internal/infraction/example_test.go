package infraction_test

import (
	"context"
	"fmt"
	"time"

	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
	"github.com/katalan/katalan/internal/infraction"
)

// ExampleSubsystem plugs a subsystem into a bus, answers its parsing request
// with a stand-in recognizer and prints the confirmed infraction.
func ExampleSubsystem() {
	ctx := context.Background()
	bus := event.NewBus()

	subsystem := infraction.New(infraction.WithRequestIDs(func() string { return "req-1" }))
	if err := subsystem.PlugToBus(bus); err != nil {
		fmt.Printf("PlugToBus failed: %v\n", err)
		return
	}
	defer subsystem.UnplugFromBus(true)

	// Recognizer: reads one confident plate from every photo.
	bus.Subscribe(events.TopicParsingRequested,
		event.AsHandlerFunc(func(ctx context.Context, e events.ParsingRequested) error {
			fmt.Printf("parsing %s\n", e.RequestID)
			return bus.Publish(ctx, events.ParsingCompleted{
				RequestID: e.RequestID,
				Results:   []events.PlateReading{{PlateNumber: "AB123CD", Confidence: 0.95}},
			})
		}))

	bus.Subscribe(events.TopicInfractionConfirmed,
		event.AsHandlerFunc(func(ctx context.Context, e events.InfractionConfirmed) error {
			fmt.Printf("%s: %d km/h considered, limit %d\n", e.PlateNumber, e.ConsideredSpeed, e.MaximumSpeed)
			return nil
		}))

	err := bus.Publish(ctx, events.RadarTriggered{
		EquipmentID:   "A7-north",
		TriggeredAt:   time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
		MeasuredSpeed: 150,
		MaximumSpeed:  130,
		RawPhoto:      []byte("car-1.jpg"),
	})
	if err != nil {
		fmt.Printf("Publish failed: %v\n", err)
		return
	}
	fmt.Printf("pending: %d\n", subsystem.Pending())

	// Output:
	// parsing req-1
	// AB123CD: 135 km/h considered, limit 130
	// pending: 0
}

func ExampleDisambiguate() {
	plate, ok := infraction.Disambiguate([]events.PlateReading{
		{PlateNumber: "AB123CD", Confidence: 0.92},
		{PlateNumber: "AB128CD", Confidence: 0.12},
	})
	fmt.Println(plate, ok)

	_, ok = infraction.Disambiguate([]events.PlateReading{
		{PlateNumber: "AB123CD", Confidence: 0.9},
		{PlateNumber: "EF456GH", Confidence: 0.9},
	})
	fmt.Println(ok)

	// Output:
	// AB123CD true
	// false
}
