package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Dispatcher executes commands on behalf of a connection.
type Dispatcher interface {
	Dispatch(ctx context.Context, connID string, cmd app.Command)
}

type WSHandler struct {
	dispatcher Dispatcher
	hub        *Hub
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewWSHandler(dispatcher Dispatcher, hub *Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		hub:        hub,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and feeds inbound messages to the dispatcher until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	outbound := h.hub.Register(connID)
	log := h.log.With("conn", connID)
	log.Debug("client connected")

	// Single writer: gorilla connections do not support concurrent writes.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "err", err)
				// Keep draining so the hub never sees a stuck queue.
				for range outbound {
				}
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		cmd, err := decodeCommand(inbound)
		if err != nil {
			h.hub.Send(connID, app.Notification{Type: app.NotifyError, Payload: app.ErrorPayload{Message: err.Error()}})
			continue
		}
		h.dispatcher.Dispatch(ctx, connID, cmd)
	}

	h.hub.Unregister(connID)
	<-writerDone
	log.Debug("client disconnected")
}
