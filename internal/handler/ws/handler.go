package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/handler"
	wshub "github.com/chefbook/chefbook-api/internal/notifier/ws"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Handler upgrades authenticated requests into hub connections. The read
// side only services pings; all traffic is server-to-client.
type Handler struct {
	hub       *wshub.Hub
	upgrader  websocket.Upgrader
	connGauge prometheus.Gauge
	logger    zerolog.Logger
}

func NewHandler(hub *wshub.Hub, allowedOrigins []string, connGauge prometheus.Gauge, logger zerolog.Logger) *Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = struct{}{}
	}

	return &Handler{
		hub:       hub,
		connGauge: connGauge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				_, ok := originSet[r.Header.Get("Origin")]
				return ok
			},
		},
		logger: logger.With().Str("handler", "ws").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Connect)
}

func (h *Handler) Connect(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connection := h.hub.Add(userID, conn)
	if h.connGauge != nil {
		h.connGauge.Inc()
	}
	go h.readLoop(conn, connection)
}

// readLoop keeps the connection alive and detects disconnects; inbound
// frames are discarded.
func (h *Handler) readLoop(conn *websocket.Conn, connection *wshub.Connection) {
	done := make(chan struct{})
	defer close(done)
	defer h.hub.Remove(connection)
	if h.connGauge != nil {
		defer h.connGauge.Dec()
	}

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
