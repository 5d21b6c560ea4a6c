package model

import "time"

// AuctionID identifies an auction room. It is chosen by the client that
// creates the room and treated as an opaque stable string.
type AuctionID string

// AuctionStatus represents the current phase of an auction's lifecycle
type AuctionStatus string

const (
	StatusPending AuctionStatus = "pending" // Registration open, no countdown active
	StatusRunning AuctionStatus = "running" // Countdown/bidding window active
)

// Auction is the lifecycle record for one auction room.
// The same id cycles back to pending after each round; the master is elected
// once and retained across rounds.
type Auction struct {
	ID       AuctionID
	Status   AuctionStatus
	MasterID UserID

	// Invader is a one-shot override for whom the next settlement is
	// attributed. Empty means no override.
	Invader string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasInvader reports whether an invader override is pending
func (a *Auction) HasInvader() bool {
	return a.Invader != ""
}
