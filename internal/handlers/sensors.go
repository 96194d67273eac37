package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"sensor_fleet/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK            = "ok"
	statusFaultInjected = "fault_injected"
	statusFaultCleared  = "fault_cleared"
	statusShutdown      = "shutdown"
	statusStarted       = "started"

	errListSensors  = "failed to load sensors"
	errLoadReadings = "failed to load readings"
	errLoadStats    = "failed to load stats"
	errLifecycle    = "failed to change sensor state"
	errBadLimit     = "invalid 'limit'; use a positive integer"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// notFound reports ErrSensorNotFound as 404 and returns true.
func notFound(c *gin.Context, err error) bool {
	if errors.Is(err, service.ErrSensorNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return true
	}
	return false
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List sensors
// @Description  Every sensor, offline ones included, with its latest reading.
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sensors"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensors [get]
func (h *Handler) listSensors(c *gin.Context) {
	status, err := h.services.Monitoring.Status(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSensors, "sensors_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(status),
		"sensors": status,
	})
}

// @Summary      Recent readings
// @Tags         sensors
// @Produce      json
// @Param        name   path   string  true   "Sensor name"
// @Param        limit  query  int     false  "Max readings (default 20, max 500)"
// @Success      200  {object}  map[string]interface{}  "count, readings"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensors/{name}/readings [get]
func (h *Handler) getReadings(c *gin.Context) {
	name := c.Param("name")
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errBadLimit})
			return
		}
		limit = v
	}

	readings, err := h.services.Monitoring.Recent(c.Request.Context(), name, limit)
	if err != nil {
		if notFound(c, err) {
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "readings_load_failed", err, "sensor", name)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sensor":   name,
		"count":    len(readings),
		"readings": readings,
	})
}

// @Summary      Reading statistics
// @Description  Aggregates over stored readings. Same time formats as /api/v1/events.
// @Tags         sensors
// @Produce      json
// @Param        name  path   string  true   "Sensor name"
// @Param        from  query  string  false  "Start of range"
// @Param        to    query  string  false  "End of range"
// @Success      200  {object}  models.SensorStats
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensors/{name}/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	name := c.Param("name")
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	st, err := h.services.Monitoring.Stats(c.Request.Context(), name, from, to)
	if err != nil {
		if notFound(c, err) {
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadStats, "stats_load_failed", err, "sensor", name)
		return
	}
	c.JSON(http.StatusOK, st)
}

// lifecycle adapts one of the Fleet fault operations to a POST handler.
//
// @Summary      Sensor lifecycle
// @Description  fault / shutdown force the sensor faulty; clear / start force it healthy. Idempotent.
// @Tags         sensors
// @Produce      json
// @Param        name  path  string  true  "Sensor name"
// @Success      200  {object}  map[string]interface{}  "status, sensor"
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sensors/{name}/fault [post]
// @Router       /api/v1/sensors/{name}/clear [post]
// @Router       /api/v1/sensors/{name}/shutdown [post]
// @Router       /api/v1/sensors/{name}/start [post]
func (h *Handler) lifecycle(op func(service.Fleet, context.Context, string) error, status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := op(h.services.Fleet, c.Request.Context(), name); err != nil {
			if notFound(c, err) {
				return
			}
			h.logAndJSONError(c, http.StatusInternalServerError, errLifecycle, "sensor_lifecycle_failed", err, "sensor", name)
			return
		}

		resp := gin.H{"status": status}
		if s, err := h.services.Fleet.Lookup(name); err == nil {
			resp["sensor"] = s
		}
		c.JSON(http.StatusOK, resp)
	}
}
