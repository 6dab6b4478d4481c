package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/katalan/katalan/internal/audit"
	"github.com/katalan/katalan/internal/config"
	"github.com/katalan/katalan/internal/event"
	"github.com/katalan/katalan/internal/event/events"
	"github.com/katalan/katalan/internal/history"
	"github.com/katalan/katalan/internal/infraction"
	"github.com/katalan/katalan/internal/parser"
	"github.com/katalan/katalan/internal/radar"
)

// Env is what a run needs from its surroundings.
type Env struct {
	Config config.Config

	// Logger defaults to a discard logger.
	Logger *slog.Logger

	// Output receives one JSON line per confirmed infraction.
	// Nil discards them.
	Output io.Writer

	// Now is the radar clock for triggers without a timestamp.
	// Defaults to time.Now.
	Now func() time.Time
}

// Report summarizes a run.
type Report struct {
	// Triggers is the number of measurements fed to the radar.
	Triggers int

	// BelowThreshold is the number of measurements not considered speeding.
	BelowThreshold uint64

	// Requested is the number of parsing requests published.
	Requested uint64

	// Unconfirmed is the number of replies that named no single plate.
	Unconfirmed uint64

	// Dropped is the number of requests still unanswered at the end.
	Dropped int

	// Infractions are the confirmed infractions, in publish order.
	Infractions []events.InfractionConfirmed

	// Events is every event published during the run, in publish order.
	Events []events.Event
}

// Confirmed returns the number of confirmed infractions.
func (r Report) Confirmed() int {
	return len(r.Infractions)
}

// Run builds a fresh pipeline, feeds it every trigger of sc in order and
// tears it down. Unanswered requests are dropped and counted in the report.
//
// The first trigger that fails stops the run; the report then covers the
// triggers fed so far and the error is returned alongside it.
func Run(ctx context.Context, sc *Scenario, env Env) (Report, error) {
	logger := env.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := env.Output
	if out == nil {
		out = io.Discard
	}
	now := env.Now
	if now == nil {
		now = time.Now
	}
	cfg := env.Config

	bus := event.NewBus(
		event.WithMaxDepth(cfg.Bus.MaxDepth),
		event.WithLogger(logger),
	)

	// The recorder subscribes first so history is in causal order.
	recorder := history.NewRecorder()
	if err := recorder.Attach(bus); err != nil {
		return Report{}, fmt.Errorf("attaching recorder: %w", err)
	}
	defer recorder.Detach()

	sink := audit.NewSink(out, audit.WithLogger(logger))
	if err := sink.Attach(bus); err != nil {
		return Report{}, fmt.Errorf("attaching audit sink: %w", err)
	}
	defer sink.Detach()

	recognizer := parser.New(parser.WithLogger(logger))
	for _, r := range sc.Replies {
		recognizer.On([]byte(r.Photo), r.Readings())
	}
	if err := recognizer.Attach(bus); err != nil {
		return Report{}, fmt.Errorf("attaching parser: %w", err)
	}
	defer recognizer.Detach()

	opts := []infraction.Option{infraction.WithLogger(logger)}
	if cfg.Infraction.StrictCorrelation {
		opts = append(opts, infraction.WithStrictCorrelation())
	}
	subsystem := infraction.New(opts...)
	if err := subsystem.PlugToBus(bus); err != nil {
		return Report{}, fmt.Errorf("plugging infraction subsystem: %w", err)
	}

	rdr := newRadar(bus, sc.Radar, cfg, now)
	logger.Info("scenario started",
		"equipment", rdr.EquipmentID(),
		"maximum_speed", rdr.MaximumSpeed(),
		"triggers", len(sc.Triggers),
	)

	var runErr error
	fed := 0
	for i, t := range sc.Triggers {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if t.MaximumSpeed != nil {
			rdr.SetMaximumSpeed(*t.MaximumSpeed)
		}

		var err error
		if t.TriggeredAt != nil {
			err = rdr.TriggerAt(ctx, t.MeasuredSpeed, []byte(t.Photo), *t.TriggeredAt)
		} else {
			err = rdr.Trigger(ctx, t.MeasuredSpeed, []byte(t.Photo))
		}
		fed++
		if err != nil {
			runErr = fmt.Errorf("trigger %d: %w", i+1, err)
			break
		}
	}

	dropped, err := unplug(subsystem, logger)
	if err != nil && runErr == nil {
		runErr = err
	}

	stats := subsystem.Stats()
	report := Report{
		Triggers:       fed,
		BelowThreshold: stats.BelowThreshold,
		Requested:      stats.Requested,
		Unconfirmed:    stats.Unconfirmed,
		Dropped:        dropped,
		Infractions:    recorder.Infractions(),
		Events:         recorder.Events(),
	}

	logger.Info("scenario finished",
		"triggers", report.Triggers,
		"requested", report.Requested,
		"confirmed", report.Confirmed(),
		"dropped", report.Dropped,
	)
	return report, runErr
}

func newRadar(bus event.Bus, rs RadarSettings, cfg config.Config, now func() time.Time) *radar.Radar {
	maximumSpeed := cfg.Radar.MaximumSpeed
	if rs.MaximumSpeed != nil {
		maximumSpeed = *rs.MaximumSpeed
	}

	opts := []radar.Option{
		radar.WithLocation(cfg.Location()),
		radar.WithClock(now),
	}
	switch {
	case rs.EquipmentID != "":
		opts = append(opts, radar.WithEquipmentID(rs.EquipmentID))
	case cfg.Radar.EquipmentID != "":
		opts = append(opts, radar.WithEquipmentID(cfg.Radar.EquipmentID))
	}
	return radar.New(bus, maximumSpeed, opts...)
}

// unplug detaches the subsystem, dropping requests that never got a reply.
// It returns how many were dropped.
func unplug(s *infraction.Subsystem, logger *slog.Logger) (int, error) {
	err := s.UnplugFromBus(false)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, infraction.ErrPendingBusInteraction) {
		return 0, err
	}

	dropped := s.Pending()
	logger.Warn("dropping unanswered parsing requests", "pending", dropped)
	if err := s.UnplugFromBus(true); err != nil {
		return 0, err
	}
	return dropped, nil
}
