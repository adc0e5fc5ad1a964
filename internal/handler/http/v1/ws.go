package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/trafficwatch/incident_geo_system/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Доступ уже проверен токеном, Origin не ограничиваем
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Realtime incident stream
// @Description Upgrade to a websocket and stream incident lifecycle events. Clients manage region, global and per-incident subscriptions with JSON commands. Requires API token.
// @Tags Realtime
// @Security ApiKeyAuth
// @Success 101 "Switching Protocols"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /ws [get]
func (h *Handler) serveWS(c *gin.Context) {
	log := h.logger.WithField("method", "serveWS")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade websocket connection")
		return
	}

	client := realtime.NewClient(h.hub, conn, callerID(c), h.logger)
	h.hub.Register(client)
	client.Start()
}
