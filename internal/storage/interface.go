package storage

import (
	"context"

	"github.com/mcoot/auctionroom-go/internal/model"
)

// Storage defines the interface for participant and auction persistence
type Storage interface {
	// Participant operations
	SaveParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, id model.UserID) (*model.Participant, error)
	DeleteParticipant(ctx context.Context, id model.UserID) error
	// ListParticipants returns an auction's participants in registration order
	ListParticipants(ctx context.Context, auctionID model.AuctionID) ([]*model.Participant, error)
	FindParticipantByName(ctx context.Context, auctionID model.AuctionID, name string) (*model.Participant, error)

	// Auction operations
	SaveAuction(ctx context.Context, auction *model.Auction) error
	GetAuction(ctx context.Context, id model.AuctionID) (*model.Auction, error)
	DeleteAuction(ctx context.Context, id model.AuctionID) error
	AuctionExists(ctx context.Context, id model.AuctionID) (bool, error)
}
