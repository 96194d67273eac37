package service

import (
	"context"
	"fmt"
	"time"

	"sensor_fleet/internal/engine"
	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
	"sensor_fleet/internal/repository"
)

// SimulatorService produces one reading per online sensor per tick.
type SimulatorService struct {
	engine      *engine.Engine
	sensors     sensorSource
	readingRepo repository.ReadingRepo
	events      eventRecorder
	latest      *latestReadings
	opts        SimulatorOptions
	log         *logger.Logger

	ticks int
}

func NewSimulatorService(
	eng *engine.Engine,
	sensors sensorSource,
	readingRepo repository.ReadingRepo,
	events eventRecorder,
	latest *latestReadings,
	opts SimulatorOptions,
	log *logger.Logger,
) *SimulatorService {
	return &SimulatorService{
		engine:      eng,
		sensors:     sensors,
		readingRepo: readingRepo,
		events:      events,
		latest:      latest,
		opts:        opts,
		log:         log,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick runs the reading pipeline for every online sensor in name order.
// A failing sensor is logged and skipped; the rest still get their reading.
func (s *SimulatorService) Tick(ctx context.Context, now time.Time) {
	for _, sn := range s.sensors.Sensors() {
		if sn.IsOffline {
			continue
		}
		if err := s.step(ctx, sn); err != nil {
			s.log.Errorw("sensor_tick_failed", "sensor", sn.Name, "error", err)
		}
	}

	s.ticks++
	if s.opts.Retention > 0 && s.opts.RetentionCheck > 0 && s.ticks%s.opts.RetentionCheck == 0 {
		s.prune(ctx, now.Add(-s.opts.Retention))
	}
}

// step is simulate -> history -> smooth -> detect -> persist -> record -> publish.
// History is read before the new reading is saved, so it never includes it.
func (s *SimulatorService) step(ctx context.Context, sn models.Sensor) error {
	r := s.engine.Simulate(sn)

	history, err := s.readingRepo.Recent(ctx, sn.ID, s.opts.HistorySize)
	if err != nil {
		s.log.Warnw("history_unavailable", "sensor", sn.Name, "error", err)
		history = nil
	}
	r.SmoothedValue = engine.Smooth(history)
	if engine.DetectAnomaly(r, history) {
		r.IsAnomaly = true
	}
	r.AlertType = engine.ResolveAlert(r)

	saveErr := s.readingRepo.Save(ctx, r)
	s.recordAlert(ctx, r)
	s.latest.set(r)
	return saveErr
}

// recordAlert sends a non-NONE reading to the event log.
func (s *SimulatorService) recordAlert(ctx context.Context, r models.Reading) {
	if r.AlertType == models.AlertNone {
		return
	}
	s.log.Debugw("reading_alert", "sensor", r.SensorName, "alert", r.AlertType.String(), "temperature", r.Temperature)
	s.events.Record(ctx, models.SensorEvent{
		OccurredAt:  r.Timestamp,
		Type:        r.AlertType.String(),
		SensorName:  r.SensorName,
		Description: fmt.Sprintf("%s reading %.2f°C", r.AlertType, r.Temperature),
		Metadata: map[string]any{
			"temperature":    r.Temperature,
			"smoothed_value": r.SmoothedValue,
			"quality_score":  r.QualityScore,
			"is_valid":       r.IsValid,
		},
	})
}

func (s *SimulatorService) prune(ctx context.Context, before time.Time) {
	n, err := s.readingRepo.Prune(ctx, before)
	if err != nil {
		s.log.Errorw("readings_prune_failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Infow("readings_pruned", "count", n, "before", before.UTC())
	}
}
