package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
)

// handleStream upgrades to a websocket and sends one JSON message per
// update of the session until either side closes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	updates, cancel, err := s.sessions.Subscribe(id)
	if err != nil {
		sessionError(w, err)
		return
	}
	defer cancel()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.log.Warn("websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer ws.Close()
	log := s.log.With("session_id", id)
	log.Info("stream opened")

	// Clients only send control frames; reading surfaces their close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			log.Info("stream closed by client")
			return
		case <-ping.C:
			ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
				ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := ws.WriteJSON(u); err != nil {
				log.Warn("stream write failed", "error", err)
				return
			}
		}
	}
}
