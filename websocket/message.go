package websocket

import (
	"encoding/json"

	"github.com/CUknot/tasksphere_backend/chat"
)

// Client to server events.
const (
	EventJoinGroup   = "joinGroup"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Server to client events.
const (
	EventExistingMessages  = "existingMessages"
	EventNewMessage        = chat.EventNewMessage
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventError             = "error"
)

// Message represents a websocket message
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// inbound is a Message whose payload is decoded once the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// TypingPayload is sent to the other members of a room while a connection
// is typing.
type TypingPayload struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: event, Payload: payload})
}

// decodeGroupID accepts either a bare string or an object with a groupId.
func decodeGroupID(raw json.RawMessage) string {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.GroupID
	}
	return ""
}
