package ws

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// roomKind maps a chat key to the metrics/event label.
func roomKind(chatKey string) string {
	if strings.HasPrefix(chatKey, "group:") {
		return "group"
	}
	return "chat"
}

func wsRoutingKey(kind string) string {
	if kind == "group" {
		return "ws_events.groups"
	}
	return "ws_events.chats"
}
