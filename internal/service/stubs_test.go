package service

import (
	"context"
	"sync"
	"time"

	"sensor_fleet/internal/models"
)

// ---- Test doubles ----

// sensorRepoStub is an in-memory repository.SensorRepo keyed by name.
type sensorRepoStub struct {
	mu        sync.Mutex
	stored    map[string]models.Sensor
	upsertErr error
	setErr    error
	listErr   error
	faulty    map[string]bool // id -> last SetFaulty value
	offline   map[string]bool // id -> last SetOffline value
}

func newSensorRepoStub() *sensorRepoStub {
	return &sensorRepoStub{
		stored:  map[string]models.Sensor{},
		faulty:  map[string]bool{},
		offline: map[string]bool{},
	}
}

func (r *sensorRepoStub) Upsert(ctx context.Context, s models.Sensor) (models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return models.Sensor{}, r.upsertErr
	}
	if prev, ok := r.stored[s.Name]; ok {
		s.ID = prev.ID
		s.IsFaulty = prev.IsFaulty
		s.CreatedAt = prev.CreatedAt
	}
	r.stored[s.Name] = s
	return s, nil
}

func (r *sensorRepoStub) SetFaulty(ctx context.Context, id string, faulty bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faulty[id] = faulty
	return r.setErr
}

func (r *sensorRepoStub) SetOffline(ctx context.Context, id string, offline bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline[id] = offline
	return r.setErr
}

func (r *sensorRepoStub) List(ctx context.Context) ([]models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Sensor, 0, len(r.stored))
	for _, s := range r.stored {
		out = append(out, s)
	}
	return out, nil
}

// readingRepoStub records saves and serves canned history per sensor id.
type readingRepoStub struct {
	mu        sync.Mutex
	history   map[string][]models.Reading
	recentErr error
	saveErr   map[string]error // by sensor name
	saves     []models.Reading

	gotLimit  int
	gotFrom   time.Time
	gotTo     time.Time
	stats     models.SensorStats
	pruned    []time.Time
	pruneResp int64
}

func newReadingRepoStub() *readingRepoStub {
	return &readingRepoStub{history: map[string][]models.Reading{}, saveErr: map[string]error{}}
}

func (r *readingRepoStub) Save(ctx context.Context, rd models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[rd.SensorName]; err != nil {
		return err
	}
	r.saves = append(r.saves, rd)
	return nil
}

func (r *readingRepoStub) Recent(ctx context.Context, sensorID string, limit int) ([]models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gotLimit = limit
	if r.recentErr != nil {
		return nil, r.recentErr
	}
	return r.history[sensorID], nil
}

func (r *readingRepoStub) Stats(ctx context.Context, sensorID string, from, to time.Time) (models.SensorStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gotFrom, r.gotTo = from, to
	st := r.stats
	st.SensorID = sensorID
	return st, nil
}

func (r *readingRepoStub) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruned = append(r.pruned, before)
	return r.pruneResp, nil
}

func (r *readingRepoStub) saved() []models.Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Reading(nil), r.saves...)
}

// eventRepoStub satisfies repository.EventRepo and captures List arguments.
type eventRepoStub struct {
	mu        sync.Mutex
	appends   []models.SensorEvent
	appendErr error

	gotFrom   time.Time
	gotTo     time.Time
	gotType   string
	gotSensor string
	events    []models.SensorEvent
	listErr   error
	listCalls int
}

func (e *eventRepoStub) Append(ctx context.Context, ev models.SensorEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appends = append(e.appends, ev)
	return e.appendErr
}

func (e *eventRepoStub) List(ctx context.Context, from, to time.Time, typ, sensor string) ([]models.SensorEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listCalls++
	e.gotFrom, e.gotTo, e.gotType, e.gotSensor = from, to, typ, sensor
	return e.events, e.listErr
}

// recorderStub captures events passed to Record.
type recorderStub struct {
	mu     sync.Mutex
	events []models.SensorEvent
}

func (r *recorderStub) Record(ctx context.Context, e models.SensorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorderStub) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// sinkStub is an AuditSink.
type sinkStub struct {
	events []models.SensorEvent
}

func (s *sinkStub) Record(e models.SensorEvent) { s.events = append(s.events, e) }

func sensorCfg(name string) models.SensorConfig {
	return models.SensorConfig{
		Name:       name,
		Location:   "Lab",
		MinValue:   18,
		MaxValue:   28,
		NormalMin:  22,
		NormalMax:  24,
		NoiseRange: 0.5,
	}
}
