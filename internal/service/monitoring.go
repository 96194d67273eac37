package service

import (
	"context"
	"time"

	"sensor_fleet/internal/models"
	"sensor_fleet/internal/repository"
)

// Bounds for history queries.
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 500
)

type MonitoringService struct {
	sensors     sensorSource
	readingRepo repository.ReadingRepo
	latest      *latestReadings
}

func NewMonitoringService(sensors sensorSource, readingRepo repository.ReadingRepo, latest *latestReadings) *MonitoringService {
	return &MonitoringService{sensors: sensors, readingRepo: readingRepo, latest: latest}
}

// Status pairs every sensor with its latest reading of this process run.
func (s *MonitoringService) Status(ctx context.Context) ([]models.SensorStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sensors := s.sensors.Sensors()
	out := make([]models.SensorStatus, 0, len(sensors))
	for _, sn := range sensors {
		st := models.SensorStatus{Sensor: sn}
		if r, ok := s.latest.get(sn.Name); ok {
			st.Latest = &r
		}
		out = append(out, st)
	}
	return out, nil
}

// Recent returns stored readings of a sensor, newest first. limit is
// clamped to [1, MaxRecentLimit]; zero or less means DefaultRecentLimit.
func (s *MonitoringService) Recent(ctx context.Context, name string, limit int) ([]models.Reading, error) {
	sn, err := s.sensors.Lookup(name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.readingRepo.Recent(ctx, sn.ID, min(limit, MaxRecentLimit))
}

func (s *MonitoringService) Stats(ctx context.Context, name string, from, to time.Time) (models.SensorStats, error) {
	from, to, err := validateRange(from, to)
	if err != nil {
		return models.SensorStats{}, err
	}
	sn, err := s.sensors.Lookup(name)
	if err != nil {
		return models.SensorStats{}, err
	}
	return s.readingRepo.Stats(ctx, sn.ID, from, to)
}
