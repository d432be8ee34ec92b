package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
)

type HealthHandler struct {
	db        *database.DB
	scheduler *services.RefreshScheduler
	hub       *services.Hub
}

func NewHealthHandler(db *database.DB, scheduler *services.RefreshScheduler, hub *services.Hub) *HealthHandler {
	return &HealthHandler{db: db, scheduler: scheduler, hub: hub}
}

// GetHealth is the liveness probe; it returns 200 whenever the process is up.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "propedge",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetReady is the readiness probe; it fails while the database is unreachable.
func (h *HealthHandler) GetReady(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GetStatus reports the scheduler state and websocket fanout for dashboards.
func (h *HealthHandler) GetStatus(c *gin.Context) {
	status := gin.H{
		"websocket_clients": 0,
		"scheduler":         gin.H{"running": false},
	}
	if h.hub != nil {
		status["websocket_clients"] = h.hub.ClientCount()
	}
	if h.scheduler != nil {
		status["scheduler"] = h.scheduler.Status()
	}
	c.JSON(http.StatusOK, status)
}
