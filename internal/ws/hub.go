package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hushgram-service/internal/models"
	"hushgram-service/internal/observability"
)

// Hub maintains active websocket rooms, keyed by chat key ("dm:a:b" for
// private conversations, "group:id" for groups).
type Hub struct {
	rooms map[string]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]ConnInfo)}
}

// AddClient registers a websocket connection in a room.
func (h *Hub) AddClient(chatKey string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatKey]; !ok {
		h.rooms[chatKey] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[chatKey][conn] = info
}

// RemoveClient removes a connection from a room.
func (h *Hub) RemoveClient(chatKey string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatKey]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatKey)
		}
	}
}

// ClientCount reports how many connections a room holds.
func (h *Hub) ClientCount(chatKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatKey])
}

// BroadcastMessage sends a stored message to every client in its room.
func (h *Hub) BroadcastMessage(chatKey string, msg models.Message) {
	h.broadcast(chatKey, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastTyping notifies a room of a typing state change.
func (h *Hub) BroadcastTyping(chatKey string, upd models.TypingUpdate) {
	h.broadcast(chatKey, models.ChatEvent{Type: "typing", Typing: &upd})
}

func (h *Hub) broadcast(chatKey string, event models.ChatEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[chatKey]))
	for conn := range h.rooms[chatKey] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(chatKey, conn, err)
			h.RemoveClient(chatKey, conn)
		}
	}
}

func (h *Hub) publishWSError(chatKey string, conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.rooms[chatKey][conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	kind := roomKind(chatKey)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"chat_key":    chatKey,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}
