package service

import (
	"sync"

	"sensor_fleet/internal/models"
)

// latestReadings keeps the newest reading per sensor name for live views.
type latestReadings struct {
	mu sync.RWMutex
	m  map[string]models.Reading
}

func newLatestReadings() *latestReadings {
	return &latestReadings{m: make(map[string]models.Reading)}
}

func (l *latestReadings) set(r models.Reading) {
	l.mu.Lock()
	l.m[r.SensorName] = r
	l.mu.Unlock()
}

func (l *latestReadings) get(name string) (models.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.m[name]
	return r, ok
}
