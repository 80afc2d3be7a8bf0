package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"audiofx/logger"
	"audiofx/task"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TaskProgressSocketHandler streams task snapshots over a websocket as JSON.
// The client gets the current snapshot on connect and an update for every
// state or progress change; the connection closes after the terminal snapshot.
func (h *APIHandler) TaskProgressSocketHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	views, cancel, err := h.engine.Subscribe(id)
	if errors.Is(err, task.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	defer cancel()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed; the read side
	// unblocks the writer loop when the client goes away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case view, ok := <-views:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
				return
			}
			if err := conn.WriteJSON(view); err != nil {
				logger.Debug("websocket write failed",
					logger.String("taskId", id), logger.ErrorField(err))
				return
			}
		case <-clientGone:
			return
		}
	}
}
