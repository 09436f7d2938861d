package ws

import "encoding/json"

// Inbound event types accepted by the gateway.
const (
	EventSendPrivate = "send_private_message"
	EventSendGroup   = "send_group_message"
	EventTyping      = "typing"
	EventJoinGroup   = "join_group"
)

// Reply event types emitted back to the originating connection.
const (
	EventPrivateSent = "private_message_sent"
	EventGroupSent   = "group_message_sent"
	EventJoinedGroup = "joined_group"
	EventError       = "error"
)

// Envelope is the wire format for every websocket frame, both
// directions: a type tag and an opaque payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Payload: raw})
}
