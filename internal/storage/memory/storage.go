package memory

import (
	"context"
	"sync"

	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	participants map[model.UserID]*model.Participant
	joinOrder    map[model.AuctionID][]model.UserID
	nameIndex    map[nameKey]model.UserID
	auctions     map[model.AuctionID]*model.Auction
}

type nameKey struct {
	auctionID model.AuctionID
	name      string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		participants: make(map[model.UserID]*model.Participant),
		joinOrder:    make(map[model.AuctionID][]model.UserID),
		nameIndex:    make(map[nameKey]model.UserID),
		auctions:     make(map[model.AuctionID]*model.Auction),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.participants[p.UserID]; ok {
		// Updates within the same auction keep the original registration
		// order slot
		if prev.Name != p.Name || prev.AuctionID != p.AuctionID {
			delete(s.nameIndex, nameKey{prev.AuctionID, prev.Name})
		}
		if prev.AuctionID != p.AuctionID {
			// Moving auctions: leave the old room and join the new one at
			// the back
			s.removeFromOrder(prev.AuctionID, p.UserID)
			s.joinOrder[p.AuctionID] = append(s.joinOrder[p.AuctionID], p.UserID)
		}
	} else {
		s.joinOrder[p.AuctionID] = append(s.joinOrder[p.AuctionID], p.UserID)
	}

	s.participants[p.UserID] = p
	s.nameIndex[nameKey{p.AuctionID, p.Name}] = p.UserID
	return nil
}

func (s *Storage) GetParticipant(ctx context.Context, id model.UserID) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	return p, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return nil
	}

	delete(s.participants, id)
	delete(s.nameIndex, nameKey{p.AuctionID, p.Name})
	s.removeFromOrder(p.AuctionID, id)
	return nil
}

// removeFromOrder drops a user from an auction's registration order.
// Caller holds s.mu.
func (s *Storage) removeFromOrder(auctionID model.AuctionID, id model.UserID) {
	order := s.joinOrder[auctionID]
	for i, uid := range order {
		if uid == id {
			s.joinOrder[auctionID] = append(order[:i], order[i+1:]...)
			return
		}
	}
}

func (s *Storage) ListParticipants(ctx context.Context, auctionID model.AuctionID) ([]*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Participant
	for _, uid := range s.joinOrder[auctionID] {
		if p, ok := s.participants[uid]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Storage) FindParticipantByName(ctx context.Context, auctionID model.AuctionID, name string) (*model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.nameIndex[nameKey{auctionID, name}]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	p, ok := s.participants[uid]
	if !ok {
		return nil, model.ErrParticipantNotFound
	}
	return p, nil
}

// Auction operations

func (s *Storage) SaveAuction(ctx context.Context, auction *model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[auction.ID] = auction
	return nil
}

func (s *Storage) GetAuction(ctx context.Context, id model.AuctionID) (*model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auction, ok := s.auctions[id]
	if !ok {
		return nil, model.ErrAuctionNotFound
	}
	return auction, nil
}

func (s *Storage) DeleteAuction(ctx context.Context, id model.AuctionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.auctions, id)
	return nil
}

func (s *Storage) AuctionExists(ctx context.Context, id model.AuctionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.auctions[id]
	return ok, nil
}
