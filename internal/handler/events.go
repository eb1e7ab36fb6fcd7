package handler

import (
	"net/http"
	"time"

	"github.com/AlexZinkM/flow-wallet/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const eventWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI is served from another origin in development
	},
}

// Events handles GET /flows/{id}/events
// @Summary      Stream flow state
// @Description  WebSocket. Sends the current state, then every phase change of the running flow as model.FlowResponse JSON, and closes once the run stops.
// @Tags         flows
// @Param        id   path  string  true  "Flow ID"
// @Success      101
// @Failure      404  {object}  model.ErrorResponse
// @Router       /flows/{id}/events [get]
func (h *FlowHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	handle, err := h.flows.Handle(id)
	if err != nil {
		writeFailure(w, h.log, err)
		return
	}

	// Upgrade to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Str("flow_id", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := handle.Subscribe()
	defer unsubscribe()

	// the reader only notices the client going away
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				unsubscribe()
				return
			}
		}
	}()

	send := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
		return conn.WriteJSON(v) == nil
	}

	if !send(toFlowResponse(handle.State())) {
		return
	}
	for st := range updates {
		if !send(toFlowResponse(st)) {
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "flow stopped"))
}
