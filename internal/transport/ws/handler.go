package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/model"
	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the HTTP layer
	},
}

// Handler upgrades session-gateway connections: authenticate, join the
// room, then dispatch the client's events until disconnect.
type Handler struct {
	hub      *Hub
	svc      *service.GameService
	verifier identity.Verifier
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, svc *service.GameService, verifier identity.Verifier) *Handler {
	return &Handler{hub: hub, svc: svc, verifier: verifier}
}

// ServeWS handles GET /api/ws?channel_id=...&token=...&reconnect=0|1.
// A missing room key or token, or a failed identity check, rejects the
// request before the upgrade, so no partial join can happen.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomKey := r.URL.Query().Get("channel_id")
	if roomKey == "" {
		http.Error(w, "missing channel_id", http.StatusBadRequest)
		return
	}
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	id, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	reconnect := r.URL.Query().Get("reconnect") == "1"

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	conn := &Connection{
		RoomKey: roomKey,
		ID:      uuid.NewString(),
		Send:    make(chan []byte, 256),
	}
	h.hub.Register(conn)
	h.svc.Connect(id, conn.ID, roomKey, reconnect)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		if err := recover(); err != nil {
			log.Printf("ws: panic in read loop for room %s: %v", conn.RoomKey, err)
		}
		h.svc.Disconnect(conn.RoomKey, conn.ID)
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			break
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) dispatch(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("ws: bad message from room %s: %v", conn.RoomKey, err)
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case model.EventStartQuestion:
		h.svc.StartQuestion(ctx, conn.RoomKey, conn.ID)
	case model.EventSelectOption:
		var payload struct {
			OptionIndex int `json:"optionIndex"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			log.Printf("ws: bad select_option payload: %v", err)
			return
		}
		h.svc.SelectOption(ctx, conn.RoomKey, conn.ID, payload.OptionIndex)
	default:
		log.Printf("ws: unknown event %q ignored", msg.Type)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && (auth[:7] == "Bearer " || auth[:7] == "bearer ") {
		return auth[7:]
	}
	return ""
}
