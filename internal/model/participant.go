package model

import "time"

// UserID is the stable identity carried by a client's token across reconnects
type UserID string

// ConnectionID identifies one live transport connection
type ConnectionID string

// Participant represents a registered member of an auction room.
// The record outlives any single connection: a disconnect keeps it in place
// so the same identity can reclaim its name (and master role) on reconnect.
type Participant struct {
	UserID    UserID
	Name      string // unique within an auction while it is pending
	AuctionID AuctionID
	IsMaster  bool

	// CurrentConnection is the connection most recently bound to this
	// participant. Last writer wins during reconnect overlap.
	CurrentConnection ConnectionID

	JoinedAt time.Time
}
