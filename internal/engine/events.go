package engine

// Outbound event names. These are the wire-level names clients listen on.
const (
	EventNewCookie             = "newCookie"
	EventReconnectSuccess      = "reconnectSuccess"
	EventRegistrationSuccess   = "registrationSuccess"
	EventAuctionAlreadyStarted = "auctionAlreadyStarted"
	EventRetryRegister         = "retryRegister"
	EventWrongAuction          = "wrongAuction"
	EventTick                  = "tick"
	EventStartingAuction       = "startingAuction"
	EventEndAuction            = "endAuction"
	EventUpdateParticipants    = "updateParticipants"
)

// NewCookiePayload carries a freshly minted identity token
type NewCookiePayload struct {
	Token string `json:"token"`
}

// RegistrationSuccessPayload confirms a registration or reconnection
type RegistrationSuccessPayload struct {
	Name     string `json:"name"`
	IsMaster bool   `json:"isMaster"`
}

// WrongAuctionPayload carries the auction the identity is actually bound
// to, so the client can redirect
type WrongAuctionPayload struct {
	AuctionID string `json:"auctionId"`
}

// TickPayload relays a price update
type TickPayload struct {
	Price float64 `json:"price"`
}

// EndAuctionPayload announces the settlement of a round
type EndAuctionPayload struct {
	Winner string  `json:"winner"`
	Price  float64 `json:"price"`
}

// ParticipantsPayload carries the room roster (master excluded), in
// registration order
type ParticipantsPayload struct {
	Participants []string `json:"participants"`
}
