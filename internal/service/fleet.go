package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
	"sensor_fleet/internal/repository"
)

var ErrSensorNotFound = errors.New("sensor not found")

// FleetService is the in-memory sensor registry. The map is the source of
// truth at runtime; the repository mirrors it so fault state and ids survive
// restarts.
type FleetService struct {
	mu      sync.RWMutex
	sensors map[string]*models.Sensor

	sensorRepo repository.SensorRepo
	events     eventRecorder
	log        *logger.Logger
}

func NewFleetService(sensorRepo repository.SensorRepo, events eventRecorder, log *logger.Logger) *FleetService {
	return &FleetService{
		sensors:    make(map[string]*models.Sensor),
		sensorRepo: sensorRepo,
		events:     events,
		log:        log,
	}
}

// Load seeds the registry with every stored sensor, so a following Sync can
// mark sensors dropped from the config offline and notice ones returning.
// Sensors already in the registry are left alone.
func (f *FleetService) Load(ctx context.Context) error {
	stored, err := f.sensorRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load sensors: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range stored {
		if _, ok := f.sensors[s.Name]; ok {
			continue
		}
		f.sensors[s.Name] = &s
	}
	f.log.Infow("sensors_loaded", "count", len(stored))
	return nil
}

// Sync reconciles the registry with cfgs by name: new sensors are created,
// known ones get the new calibration and come back online, and sensors
// missing from cfgs are marked offline. Nothing is ever deleted.
// Persistence errors are returned joined; the in-memory state is applied regardless.
func (f *FleetService) Sync(ctx context.Context, cfgs []models.SensorConfig) error {
	var (
		errs    []error
		pending []models.SensorEvent
		seen    = make(map[string]struct{}, len(cfgs))
	)

	f.mu.Lock()
	for _, c := range cfgs {
		seen[c.Name] = struct{}{}

		cur, known := f.sensors[c.Name]
		var next models.Sensor
		if known {
			next = *cur
			next.Apply(c)
		} else {
			next = models.NewSensor(c)
			next.ID = uuid.NewString()
			next.CreatedAt = time.Now().UTC()
		}
		wasOffline := known && cur.IsOffline
		next.IsOffline = false

		stored, err := f.sensorRepo.Upsert(ctx, next)
		if err != nil {
			errs = append(errs, err)
			stored = next
		} else if known {
			stored.IsFaulty = cur.IsFaulty
		}
		f.sensors[c.Name] = &stored

		switch {
		case !known:
			pending = append(pending, models.SensorEvent{
				Type:        models.EventSensorAdded,
				SensorName:  c.Name,
				Description: "sensor added at " + c.Location,
				Metadata:    map[string]any{"is_faulty": stored.IsFaulty},
			})
		case wasOffline:
			pending = append(pending, models.SensorEvent{
				Type:        models.EventSensorOnline,
				SensorName:  c.Name,
				Description: "sensor back in configuration",
			})
		}
	}

	for name, s := range f.sensors {
		if _, ok := seen[name]; ok || s.IsOffline {
			continue
		}
		s.IsOffline = true
		s.UpdatedAt = time.Now().UTC()
		if err := f.sensorRepo.SetOffline(ctx, s.ID, true); err != nil {
			errs = append(errs, err)
		}
		pending = append(pending, models.SensorEvent{
			Type:        models.EventSensorOffline,
			SensorName:  name,
			Description: "sensor removed from configuration",
		})
	}
	f.mu.Unlock()

	for _, e := range pending {
		f.log.Infow("sensor_sync", "sensor", e.SensorName, "event", e.Type)
		f.events.Record(ctx, e)
	}
	return errors.Join(errs...)
}

// Watch applies every config change until ctx is done or changes is closed.
func (f *FleetService) Watch(ctx context.Context, changes <-chan []models.SensorConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfgs, ok := <-changes:
			if !ok {
				return
			}
			if err := f.Sync(ctx, cfgs); err != nil {
				f.log.Errorw("sensor_sync_failed", "error", err)
			}
		}
	}
}

// Sensors returns copies of all sensors, offline included, sorted by name.
func (f *FleetService) Sensors() []models.Sensor {
	f.mu.RLock()
	out := make([]models.Sensor, 0, len(f.sensors))
	for _, s := range f.sensors {
		out = append(out, *s)
	}
	f.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *FleetService) Lookup(name string) (models.Sensor, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.sensors[name]
	if !ok {
		return models.Sensor{}, fmt.Errorf("%w: %q", ErrSensorNotFound, name)
	}
	return *s, nil
}

// InjectFault forces the sensor faulty until cleared.
func (f *FleetService) InjectFault(ctx context.Context, name string) error {
	return f.setFaulty(ctx, name, true, models.EventFaultInjected, "fault injected")
}

func (f *FleetService) ClearFault(ctx context.Context, name string) error {
	return f.setFaulty(ctx, name, false, models.EventFaultCleared, "fault cleared")
}

// Shutdown marks the sensor faulty, like InjectFault, under its own event type.
func (f *FleetService) Shutdown(ctx context.Context, name string) error {
	return f.setFaulty(ctx, name, true, models.EventShutdown, "sensor shut down")
}

func (f *FleetService) Start(ctx context.Context, name string) error {
	return f.setFaulty(ctx, name, false, models.EventStarted, "sensor started")
}

// setFaulty applies the transition in memory and persists it under the same
// lock, so concurrent callers reach the store in the order they changed the
// registry. Persistence and audit failures are logged; only an unknown name
// is reported to the caller.
func (f *FleetService) setFaulty(ctx context.Context, name string, faulty bool, evType, desc string) error {
	f.mu.Lock()
	s, ok := f.sensors[name]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrSensorNotFound, name)
	}
	was := s.IsFaulty
	s.IsFaulty = faulty
	s.UpdatedAt = time.Now().UTC()
	if err := f.sensorRepo.SetFaulty(ctx, s.ID, faulty); err != nil {
		f.log.Errorw("sensor_persist_failed", "sensor", name, "event", evType, "error", err)
	}
	f.mu.Unlock()

	f.log.Infow("sensor_lifecycle", "sensor", name, "event", evType, "is_faulty", faulty)
	f.events.Record(ctx, models.SensorEvent{
		Type:        evType,
		SensorName:  name,
		Description: desc,
		Metadata:    map[string]any{"was_faulty": was, "is_faulty": faulty},
	})
	return nil
}
