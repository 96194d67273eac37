package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"sensor_fleet/internal/models"
	"sensor_fleet/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockFleet struct {
	sensors  map[string]models.Sensor
	opErr    error
	lastOp   string
	lastName string
}

func (m *mockFleet) Load(ctx context.Context) error { return nil }
func (m *mockFleet) Sync(ctx context.Context, cfgs []models.SensorConfig) error { return nil }
func (m *mockFleet) Watch(ctx context.Context, changes <-chan []models.SensorConfig) {}

func (m *mockFleet) Sensors() []models.Sensor {
	out := make([]models.Sensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		out = append(out, s)
	}
	return out
}

func (m *mockFleet) Lookup(name string) (models.Sensor, error) {
	s, ok := m.sensors[name]
	if !ok {
		return models.Sensor{}, service.ErrSensorNotFound
	}
	return s, nil
}

func (m *mockFleet) set(op, name string, faulty bool) error {
	m.lastOp, m.lastName = op, name
	if m.opErr != nil {
		return m.opErr
	}
	s, ok := m.sensors[name]
	if !ok {
		return service.ErrSensorNotFound
	}
	s.IsFaulty = faulty
	m.sensors[name] = s
	return nil
}

func (m *mockFleet) InjectFault(ctx context.Context, name string) error {
	return m.set("inject", name, true)
}
func (m *mockFleet) ClearFault(ctx context.Context, name string) error {
	return m.set("clear", name, false)
}
func (m *mockFleet) Shutdown(ctx context.Context, name string) error {
	return m.set("shutdown", name, true)
}
func (m *mockFleet) Start(ctx context.Context, name string) error {
	return m.set("start", name, false)
}

type mockMonitoring struct {
	status    []models.SensorStatus
	readings  []models.Reading
	stats     models.SensorStats
	err       error
	lastName  string
	lastLimit int
	lastFrom  time.Time
	lastTo    time.Time
}

func (m *mockMonitoring) Status(ctx context.Context) ([]models.SensorStatus, error) {
	return m.status, m.err
}

func (m *mockMonitoring) Recent(ctx context.Context, name string, limit int) ([]models.Reading, error) {
	m.lastName, m.lastLimit = name, limit
	return m.readings, m.err
}

func (m *mockMonitoring) Stats(ctx context.Context, name string, from, to time.Time) (models.SensorStats, error) {
	m.lastName, m.lastFrom, m.lastTo = name, from, to
	return m.stats, m.err
}

type mockEventLog struct {
	resp       []models.SensorEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) Record(ctx context.Context, e models.SensorEvent) {}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SensorEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func doRequest(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}
