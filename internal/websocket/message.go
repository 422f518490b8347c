package websocket

import (
	"encoding/json"
	"time"

	"etfseasonal/internal/services"
)

// Message types of the live session protocol
const (
	// client -> server
	TypeRender    = "render"
	TypeHeartbeat = "heartbeat"

	// server -> client
	TypeConnection = "connection"
	TypeTabResult  = "tab_result"
	TypeError      = "error"
	TypeStatus     = "status"
)

// Request is a client message. ID is echoed on the reply so a client can
// match replies to the selection that produced them.
type Request struct {
	Type      string             `json:"type"`
	ID        string             `json:"id,omitempty"`
	Selection services.Selection `json:"selection"`
}

// Message is a server message.
type Message struct {
	Type      string      `json:"type"`
	ID        string      `json:"id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

func encode(msgType, id, traceID string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		ID:        id,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
