package ws

import "encoding/json"

// Server-to-client event types.
const (
	EventSaveUserInfo     = "saveUserInfo"
	EventMessages         = "messages"
	EventMessage          = "message"
	EventUserConnected    = "userConnected"
	EventUserDisconnected = "userDisconnected"
)

// Client-to-server event types. Disconnect is transport-level and has
// no event of its own.
const (
	InboundMessage       = "message"
	InboundUserConnected = "userConnected"
)

type ServerEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewEvent marshals an outbound event envelope.
func NewEvent(eventType string, payload any) ([]byte, error) {
	return json.Marshal(ServerEvent{
		Type:    eventType,
		Payload: payload,
	})
}

// ClientEvent is the envelope for events coming from the client.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
