package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trackdesk/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // any origin; tokens are checked by AuthMiddleware
	},
}

type fieldAck struct {
	OK    bool   `json:"ok"`
	Field string `json:"field"`
	Error string `json:"error,omitempty"`
}

// EditorWSHandler streams keystroke-level field changes for one session. Every
// message is a {field,value} change answered by an ack.
func (h *APIHandler) EditorWSHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session")
	c, ok := h.sessions.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Editor session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[EditorWS] upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	acks := make(chan fieldAck, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case ack, ok := <-acks:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteJSON(ack); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	logger.Info("[EditorWS] connected", logger.String("session", key))
	for {
		var msg fieldChange
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("[EditorWS] read ended", logger.String("session", key), logger.ErrorField(err))
			}
			break
		}
		ack := fieldAck{OK: true, Field: msg.Field}
		if err := c.Set(msg.Field, msg.Value); err != nil {
			ack = fieldAck{Field: msg.Field, Error: err.Error()}
		}
		select {
		case acks <- ack:
		case <-done:
		}
	}
	close(acks)
	<-done
	logger.Info("[EditorWS] disconnected", logger.String("session", key))
}
