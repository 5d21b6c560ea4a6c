package redis

import (
	"github.com/mcoot/auctionroom-go/internal/model"
)

// Key prefixes for Redis storage
const (
	participantPrefix = "participant:"
	auctionPrefix     = "auction:"
)

func participantKey(id model.UserID) string {
	return participantPrefix + string(id)
}

func auctionKey(id model.AuctionID) string {
	return auctionPrefix + string(id)
}

// membersKey is a sorted set of user ids scored by join time, preserving
// registration order for roster views
func membersKey(id model.AuctionID) string {
	return auctionPrefix + string(id) + ":members"
}

// nameIndexKey maps a (auction, display name) pair to the owning user id
func nameIndexKey(id model.AuctionID, name string) string {
	return auctionPrefix + string(id) + ":name:" + name
}
