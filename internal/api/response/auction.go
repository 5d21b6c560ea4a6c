package response

import (
	"time"

	"github.com/mcoot/auctionroom-go/internal/model"
)

// Auction is the read-only view of an auction room
type Auction struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuctionFromModel converts a model.Auction and its roster to a response
// Auction. The master identity and any pending invader stay server-side.
func AuctionFromModel(a *model.Auction, roster []string) Auction {
	if roster == nil {
		roster = []string{}
	}
	return Auction{
		ID:           string(a.ID),
		Status:       string(a.Status),
		Participants: roster,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
