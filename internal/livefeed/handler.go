package livefeed

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neevany/timingsrc/internal/logging"
)

// Handler upgrades incoming HTTP requests to WebSocket connections and
// registers them with a Hub.
type Handler struct {
	hub          *Hub
	checkOrigin  func(*http.Request) bool
	upgradeTimeout time.Duration
}

// NewHandler returns a Handler serving hub. checkOrigin may be nil, in
// which case every origin is accepted (suitable for a local dashboard;
// callers fronting this with a public listener should supply one).
func NewHandler(hub *Hub, checkOrigin func(*http.Request) bool) *Handler {
	return &Handler{hub: hub, checkOrigin: checkOrigin, upgradeTimeout: 10 * time.Second}
}

// ServeHTTP upgrades the connection and starts its client pumps.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := h.checkOrigin
	if origin == nil {
		origin = func(*http.Request) bool { return true }
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      origin,
		HandshakeTimeout: h.upgradeTimeout,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("livefeed upgrade error")
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
