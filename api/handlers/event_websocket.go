package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/app"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventWebSocketHandler streams scheduler events to WebSocket clients
type EventWebSocketHandler struct {
	scheduler *app.Scheduler
	logger    *zap.Logger
}

// NewEventWebSocketHandler creates a new event stream handler
func NewEventWebSocketHandler(scheduler *app.Scheduler, log *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{
		scheduler: scheduler,
		logger:    log,
	}
}

// HandleWebSocket handles GET /api/v1/events. The first message is a
// stats_update snapshot of the current batch.
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.scheduler.Subscribe()
	defer unsubscribe()

	h.logger.Info("Event stream client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	snapshot := app.Event{
		Type:    app.EventStatsUpdate,
		BatchID: h.scheduler.BatchID(),
		Stats:   h.scheduler.Stats(),
	}
	if err := h.write(conn, snapshot); err != nil {
		return
	}

	// Reads only detect the client going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *EventWebSocketHandler) write(conn *websocket.Conn, ev app.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("Failed to send event", zap.Error(err))
		return err
	}
	return nil
}
