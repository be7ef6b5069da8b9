package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	broadcastdomain "fleetsync/internal/broadcast/domain"
	broadcastinfra "fleetsync/internal/broadcast/infrastructure"
	fleetdomain "fleetsync/internal/fleet/domain"
)

const handshakeTimeout = 10 * time.Second

// FleetSubscriber hands out the current entity list with broadcasts held off
type FleetSubscriber interface {
	Subscribe(ctx context.Context, join func(fleetdomain.Snapshot) error) error
}

// ObserverRegistry is the broadcast hub surface used by the stream handler
type ObserverRegistry interface {
	Register(obs broadcastdomain.Observer, initial []byte) error
	Unregister(id string)
}

// StreamHandler upgrades requests to the websocket push channel
type StreamHandler struct {
	fleet    FleetSubscriber
	hub      ObserverRegistry
	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewStreamHandler(fleet FleetSubscriber, hub ObserverRegistry) *StreamHandler {
	return &StreamHandler{
		fleet: fleet,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		now: time.Now,
	}
}

// Stream handles GET /api/v1/stream
// @Summary      Subscribe to entity changes
// @Description  Websocket. The first message is the current list, then one message per committed change.
// @Tags         stream
// @Param        token  query  string  false  "Bearer token, for clients that cannot set headers"
// @Success      101
// @Failure      401  {object}  application.ErrorResponse
// @Security     BearerAuth
// @Router       /stream [get]
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	logger := getLogger(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logger.Warn("Websocket upgrade failed", "err", err)
		return
	}

	obs := broadcastinfra.NewWebSocketObserver(conn)
	err = h.fleet.Subscribe(r.Context(), func(snapshot fleetdomain.Snapshot) error {
		initial, err := json.Marshal(broadcastdomain.NewMessage(fleetdomain.Change{Entities: snapshot}, h.now()))
		if err != nil {
			return err
		}
		return h.hub.Register(obs, initial)
	})
	if err != nil {
		logger.Warn("Observer rejected", "observer", obs.ID(), "err", err)
		obs.Close()
		return
	}

	err = obs.Drain()
	logger.Debug("Observer disconnected", "observer", obs.ID(), "err", err)
	h.hub.Unregister(obs.ID())
}
