package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"sensor_fleet/internal/models"
	"sensor_fleet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestParseFeedOptions(t *testing.T) {
	cases := []struct {
		name       string
		u          string
		want       time.Duration
		wantSensor string
		wantErr    bool
	}{
		{"default_when_missing", "/ws", time.Second, "", false},
		{"valid_interval", "/ws?interval=200ms", 200 * time.Millisecond, "", false},
		{"clamped_low", "/ws?interval=10ms", 100 * time.Millisecond, "", false},
		{"clamped_high", "/ws?interval=1m", 10 * time.Second, "", false},
		{"sensor_filter", "/ws?sensor=lab-1&interval=2s", 2 * time.Second, "lab-1", false},
		{"unparsable", "/ws?interval=bogus", 0, "", true},
		{"negative", "/ws?interval=-1s", 0, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)

			got, err := parseFeedOptions(c)
			if tc.wantErr {
				if !errors.Is(err, errInvalidInterval) {
					t.Fatalf("expected errInvalidInterval, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.interval != tc.want || got.sensor != tc.wantSensor {
				t.Fatalf("got %+v, want interval=%v sensor=%q", got, tc.want, tc.wantSensor)
			}
		})
	}
}

// feedServer serves /ws for s and returns the websocket base URL.
func feedServer(t *testing.T, s *service.Service) *url.URL {
	t.Helper()
	r := gin.New()
	r.GET("/ws", NewHandler(s, nil).wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	return u
}

func dialFeed(t *testing.T, u *url.URL, query url.Values) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u.RawQuery = query.Encode()
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, resp, err := dialer.Dial(u.String(), nil)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func readFrame(t *testing.T, conn *websocket.Conn) feedFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var fr feedFrame
	if err := conn.ReadJSON(&fr); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return fr
}

func twoSensorStatus() []models.SensorStatus {
	return []models.SensorStatus{
		{
			Sensor: models.Sensor{Name: "cold-room", Location: "Basement"},
			Latest: &models.Reading{SensorName: "cold-room", Temperature: 3.21},
		},
		{
			Sensor: models.Sensor{Name: "lab-1", Location: "Lab"},
			Latest: &models.Reading{SensorName: "lab-1", Temperature: 23.45, QualityScore: 78},
		},
	}
}

func TestWebSocket_StreamsStatusPeriodically(t *testing.T) {
	u := feedServer(t, &service.Service{Monitoring: &mockMonitoring{status: twoSensorStatus()}})

	conn, _, err := dialFeed(t, u, url.Values{"interval": {"100ms"}})
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	first := readFrame(t, conn)
	if first.Type != frameStatus || len(first.Status) != 2 || first.At.IsZero() {
		t.Fatalf("bad first frame: %+v", first)
	}
	if got := first.Status[1]; got.Sensor.Name != "lab-1" || got.Latest == nil || got.Latest.Temperature != 23.45 {
		t.Fatalf("unexpected status: %+v", got)
	}

	next := readFrame(t, conn)
	if next.Type != frameStatus || !next.At.After(first.At) {
		t.Fatalf("expected a later status frame, got %+v", next)
	}
}

func TestWebSocket_SensorFilter(t *testing.T) {
	fleet := &mockFleet{sensors: map[string]models.Sensor{
		"lab-1":     {Name: "lab-1"},
		"cold-room": {Name: "cold-room"},
	}}
	u := feedServer(t, &service.Service{Fleet: fleet, Monitoring: &mockMonitoring{status: twoSensorStatus()}})

	conn, _, err := dialFeed(t, u, url.Values{"sensor": {"lab-1"}})
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	fr := readFrame(t, conn)
	if len(fr.Status) != 1 || fr.Status[0].Sensor.Name != "lab-1" {
		t.Fatalf("expected only lab-1, got %+v", fr.Status)
	}
}

func TestWebSocket_RejectedBeforeUpgrade(t *testing.T) {
	fleet := &mockFleet{sensors: map[string]models.Sensor{"lab-1": {Name: "lab-1"}}}
	u := feedServer(t, &service.Service{Fleet: fleet, Monitoring: &mockMonitoring{}})

	cases := []struct {
		name  string
		query url.Values
		code  int
	}{
		{"unknown_sensor", url.Values{"sensor": {"ghost"}}, http.StatusNotFound},
		{"bad_interval", url.Values{"interval": {"soon"}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := dialFeed(t, u, tc.query)
			if !errors.Is(err, websocket.ErrBadHandshake) {
				t.Fatalf("expected bad handshake, got %v", err)
			}
			if resp == nil || resp.StatusCode != tc.code {
				t.Fatalf("expected HTTP %d, got %+v", tc.code, resp)
			}
		})
	}
}

func TestWebSocket_InitialStatusErrorSendsErrorFrameAndCloses(t *testing.T) {
	u := feedServer(t, &service.Service{Monitoring: &mockMonitoring{err: errors.New("boom")}})

	conn, _, err := dialFeed(t, u, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	fr := readFrame(t, conn)
	if fr.Type != frameError || fr.Error == "" || fr.Status != nil {
		t.Fatalf("expected error frame, got %+v", fr)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseInternalServerErr) {
		t.Fatalf("expected internal error close, got %v", err)
	}
}
