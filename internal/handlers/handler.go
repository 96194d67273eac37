package handlers

import (
	"sensor_fleet/internal/logger"
	"sensor_fleet/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Live sensor feed (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerSensorRoutes(api)
		h.registerEventRoutes(api)
	}
}

func (h *Handler) registerSensorRoutes(api *gin.RouterGroup) {
	sensors := api.Group("/sensors")
	{
		sensors.GET("", h.listSensors)
		sensors.GET("/:name/readings", h.getReadings)
		sensors.GET("/:name/stats", h.getStats)

		sensors.POST("/:name/fault", h.lifecycle(service.Fleet.InjectFault, statusFaultInjected))
		sensors.POST("/:name/clear", h.lifecycle(service.Fleet.ClearFault, statusFaultCleared))
		sensors.POST("/:name/shutdown", h.lifecycle(service.Fleet.Shutdown, statusShutdown))
		sensors.POST("/:name/start", h.lifecycle(service.Fleet.Start, statusStarted))
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	events := api.Group("/events")
	{
		events.GET("", h.getEvents)
	}
}
