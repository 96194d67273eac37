package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/models"
	"sensor_fleet/internal/service"
)

// Live feed tuning.
const (
	feedWriteWait = 10 * time.Second
	feedPongWait  = 60 * time.Second
	feedPingEvery = feedPongWait * 9 / 10
	feedReadLimit = 512 // clients only send control frames

	feedDefaultInterval = time.Second
	feedMinInterval     = 100 * time.Millisecond
	feedMaxInterval     = 10 * time.Second

	frameStatus = "status"
	frameError  = "error"

	errBadInterval = "invalid 'interval'; use a duration such as 500ms or 2s"
)

var errInvalidInterval = errors.New("must be a positive duration")

// feedFrame is one message on the live feed: either the fleet status or the
// reason it could not be read.
type feedFrame struct {
	Type   string                `json:"type"`
	At     time.Time             `json:"at"`
	Status []models.SensorStatus `json:"status,omitempty"`
	Error  string                `json:"error,omitempty"`
}

type feedOptions struct {
	interval time.Duration
	sensor   string // empty streams the whole fleet
}

// The feed is read-only, so any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live fleet status
// @Description  Websocket streaming the status of every sensor, or of ?sensor=, each ?interval (100ms..10s).
// @Tags         sensors
// @Param        interval  query  string  false  "push interval, e.g. 2s"
// @Param        sensor    query  string  false  "only stream this sensor"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	opts, err := parseFeedOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadInterval})
		return
	}
	if opts.sensor != "" && h.services.Fleet != nil {
		if _, err := h.services.Fleet.Lookup(opts.sensor); notFound(c, err) {
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	feed := &statusFeed{conn: conn, mon: h.services.Monitoring, log: h.log, opts: opts}
	feed.run(c.Request.Context())
}

// parseFeedOptions reads ?interval and ?sensor. An interval outside the
// allowed window is clamped; one that does not parse is an error.
func parseFeedOptions(c *gin.Context) (feedOptions, error) {
	opts := feedOptions{interval: feedDefaultInterval, sensor: c.Query("sensor")}
	if s := c.Query("interval"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return feedOptions{}, fmt.Errorf("interval %q: %w", s, errInvalidInterval)
		}
		opts.interval = min(max(d, feedMinInterval), feedMaxInterval)
	}
	return opts, nil
}

// statusFeed pushes fleet status frames to one websocket client.
type statusFeed struct {
	conn *websocket.Conn
	mon  service.Monitoring
	log  *logger.Logger
	opts feedOptions
}

// run writes a frame right away and then every interval until the client
// leaves or ctx ends. If the very first status read fails the client gets an
// error frame and the connection is closed; later failures are reported and
// the feed keeps going.
func (f *statusFeed) run(ctx context.Context) {
	f.conn.SetReadLimit(feedReadLimit)
	_ = f.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	gone := f.drain()

	first := f.snapshot(ctx)
	if err := f.write(first); err != nil {
		f.debug("ws_write_failed", "err", err)
		return
	}
	if first.Type == frameError {
		f.closeWith(websocket.CloseInternalServerErr, first.Error)
		return
	}

	push := time.NewTicker(f.opts.interval)
	defer push.Stop()
	ping := time.NewTicker(feedPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			f.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		case <-ping.C:
			if err := f.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				f.debug("ws_ping_failed", "err", err)
				return
			}
		case <-push.C:
			if err := f.write(f.snapshot(ctx)); err != nil {
				f.debug("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// drain consumes client frames so pongs and close frames are processed.
// The returned channel closes once the client is gone.
func (f *statusFeed) drain() <-chan struct{} {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := f.conn.ReadMessage(); err != nil {
				f.debug("ws_client_gone", "err", err)
				return
			}
		}
	}()
	return gone
}

func (f *statusFeed) snapshot(ctx context.Context) feedFrame {
	now := time.Now().UTC()
	st, err := f.mon.Status(ctx)
	if err != nil {
		if f.log != nil {
			f.log.Errorw("ws_status_failed", "sensor", f.opts.sensor, "err", err)
		}
		return feedFrame{Type: frameError, At: now, Error: "fleet status unavailable"}
	}
	if f.opts.sensor != "" {
		st = onlySensor(st, f.opts.sensor)
	}
	return feedFrame{Type: frameStatus, At: now, Status: st}
}

func onlySensor(st []models.SensorStatus, name string) []models.SensorStatus {
	out := st[:0:0]
	for _, s := range st {
		if s.Sensor.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func (f *statusFeed) write(fr feedFrame) error {
	_ = f.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	return f.conn.WriteJSON(fr)
}

func (f *statusFeed) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(feedWriteWait))
}

func (f *statusFeed) debug(key string, kv ...any) {
	if f.log != nil {
		f.log.Debugw(key, kv...)
	}
}
