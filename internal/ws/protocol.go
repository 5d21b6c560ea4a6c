package ws

import "encoding/json"

// Inbound event names clients send over the socket
const (
	EventAuth         = "auth"
	EventCheckAuth    = "checkAuth"
	EventRegister     = "register"
	EventTick         = "tick"
	EventStartAuction = "startAuction"
	EventEndAuction   = "endAuction"
	EventInvade       = "invade"
	EventExitAuction  = "exitAuction"
)

// Envelope is the wire framing for every message in both directions:
// an event name plus an event-specific JSON payload
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AuthPayload carries the identity token presented on connect
type AuthPayload struct {
	Token     string `json:"token"`
	AuctionID string `json:"auctionId"`
}

// RegisterPayload carries a display-name registration request
type RegisterPayload struct {
	Name      string `json:"name"`
	AuctionID string `json:"auctionId"`
}

// TickPayload carries a price update from the privileged client
type TickPayload struct {
	Price float64 `json:"price"`
}

// EndPayload carries the final price at settlement
type EndPayload struct {
	Price float64 `json:"price"`
}

// InvadePayload names the override buyer
type InvadePayload struct {
	Name string `json:"name"`
}
