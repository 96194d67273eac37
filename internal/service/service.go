package service

import (
	"context"
	"time"

	"sensor_fleet/internal/engine"
	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
	"sensor_fleet/internal/repository"
)

// Fleet owns the sensor registry: config sync and the fault lifecycle.
type Fleet interface {
	Load(ctx context.Context) error
	Sync(ctx context.Context, cfgs []models.SensorConfig) error
	Watch(ctx context.Context, changes <-chan []models.SensorConfig)
	Sensors() []models.Sensor
	Lookup(name string) (models.Sensor, error)

	InjectFault(ctx context.Context, name string) error
	ClearFault(ctx context.Context, name string) error
	Shutdown(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}

// Monitoring exposes read-only sensor state and stored history.
type Monitoring interface {
	Status(ctx context.Context) ([]models.SensorStatus, error)
	Recent(ctx context.Context, name string, limit int) ([]models.Reading, error)
	Stats(ctx context.Context, name string, from, to time.Time) (models.SensorStats, error)
}

// EventLog records sensor events and gives filtered access to them.
type EventLog interface {
	Record(ctx context.Context, e models.SensorEvent)
	List(ctx context.Context, f LogFilter) ([]models.SensorEvent, error)
}

// Simulator runs the background loop that produces readings.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
	Tick(ctx context.Context, now time.Time)
}

// AuditSink receives every recorded event. audit.Recorder satisfies it.
type AuditSink interface {
	Record(e models.SensorEvent)
}

// sensorSource is the part of Fleet the simulator and monitoring read from.
type sensorSource interface {
	Sensors() []models.Sensor
	Lookup(name string) (models.Sensor, error)
}

// eventRecorder is the write half of EventLog.
type eventRecorder interface {
	Record(ctx context.Context, e models.SensorEvent)
}

// Service aggregates all sub-services.
type Service struct {
	Fleet
	Monitoring
	EventLog
	Simulator
}

// NewService wires the repository layer, the engine and the audit sink into
// concrete services. sink may be nil.
func NewService(repos *repository.Repository, eng *engine.Engine, sink AuditSink, opts SimulatorOptions, log *logger.Logger) *Service {
	latest := newLatestReadings()
	events := NewEventLogService(repos.EventRepo, sink, log)
	fleet := NewFleetService(repos.SensorRepo, events, log)

	return &Service{
		Fleet:      fleet,
		Monitoring: NewMonitoringService(fleet, repos.ReadingRepo, latest),
		EventLog:   events,
		Simulator:  NewSimulatorService(eng, fleet, repos.ReadingRepo, events, latest, opts, log),
	}
}
