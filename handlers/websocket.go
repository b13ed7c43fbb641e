package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	httpHandler "siar-server/handlers/http"
	"siar-server/logs"
	"siar-server/usecases"
	"siar-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const pongWait = 60 * time.Second

// WebSocket message envelopes
type incomingMessage struct {
	Type string `json:"type"` // refresh | ping
}

type overviewMessage struct {
	Type    string                  `json:"type"`
	Devices []usecases.DeviceStatus `json:"devices"`
}

// WSHandler groups dependencies for dashboard websocket flows
type WSHandler struct {
	mgr       *ws.Manager
	dashboard *usecases.DashboardUseCase
}

func NewWSHandler(mgr *ws.Manager, dashboard *usecases.DashboardUseCase) *WSHandler {
	return &WSHandler{mgr: mgr, dashboard: dashboard}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleDashboardWS upgrades an authenticated request and keeps the socket
// registered until the client goes away.
// GET /api/v1/ws?token=<jwt>
func (h *WSHandler) HandleDashboardWS(c *gin.Context) {
	userID := httpHandler.UserID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logs.Logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	log := logs.Logger.WithField("user_id", userID)
	unregister := h.mgr.Register(userID, conn)
	log.Info("dashboard connected")
	defer func() {
		unregister()
		log.Info("dashboard disconnected")
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.pushOverview(c.Request.Context(), userID, log)

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("read error: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt != websocket.TextMessage {
			continue
		}

		var base incomingMessage
		if err := json.Unmarshal(message, &base); err != nil {
			log.Debugf("invalid json: %v", err)
			continue
		}

		switch base.Type {
		case "refresh":
			h.pushOverview(c.Request.Context(), userID, log)
		case "ping":
			// keeps the read deadline alive
		default:
			log.Debugf("unknown message type: %s", base.Type)
		}
	}
}

func (h *WSHandler) pushOverview(ctx context.Context, userID string, log *logrus.Entry) {
	all, err := h.dashboard.Overview(ctx, userID)
	if err != nil {
		log.Errorf("overview: %v", err)
		return
	}
	h.mgr.Notify(userID, overviewMessage{Type: "overview", Devices: all})
}

// GetConnections GET /api/v1/ws/connections
func (h *WSHandler) GetConnections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connections": h.mgr.Connections(httpHandler.UserID(c))})
}
