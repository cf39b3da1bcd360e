package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekaru/fitcoach/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handlers contains HTTP handlers for health checks
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new health handlers instance
func NewHandlers(app *app.App) *Handlers {
	return &Handlers{app: app}
}

// HealthCheckHandler handles the health check endpoint
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	uptime := time.Since(h.app.StartTime).String()
	state := h.app.Store.Snapshot()

	// Always return 200 OK status; a stopped camera is not unhealthy
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     uptime,
		"version":    Version,
		"session_id": state.ID,
		"camera_on":  state.CameraOn,
		"capture":    h.app.Controller.Stats(),
		"live_feed":  h.app.Hub.Stats(),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// HealthCheckHandlerWithSlash handles the health check endpoint with trailing slash
func (h *Handlers) HealthCheckHandlerWithSlash(c *gin.Context) {
	h.HealthCheckHandler(c)
}
