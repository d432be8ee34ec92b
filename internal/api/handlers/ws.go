package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/services"
)

type WSHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

func NewWSHandler(hub *services.Hub, logger *logrus.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks ride on the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect upgrades the request and subscribes it to refresh events.
// GET /ws
func (h *WSHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.Register(conn)
}
