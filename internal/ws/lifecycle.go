package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hushgram-service/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveRoom upgrades the request, registers the connection in the room and
// holds a read loop until the client goes away, publishing connection
// lifecycle events along the way.
func serveRoom(c *gin.Context, hub *Hub, chatKey string, userID int, traceID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	kind := roomKind(chatKey)
	hub.AddClient(chatKey, conn, info)

	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	publishLifecycleEvent(c.Request.Context(), kind, chatKey, "ws_connect", info, "")

	go func() {
		ctx := context.Background()
		var closeReason string
		defer func() {
			hub.RemoveClient(chatKey, conn)
			observability.DecWSActive(kind)
			observability.IncWSEvent(kind, "ws_disconnect")
			publishLifecycleEvent(ctx, kind, chatKey, "ws_disconnect", info, closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent(kind, "ws_error")
					publishLifecycleEvent(ctx, kind, chatKey, "ws_error", info, closeReason)
				}
				return
			}
		}
	}()
}

func publishLifecycleEvent(ctx context.Context, kind, chatKey, event string, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"chat_key":    chatKey,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
