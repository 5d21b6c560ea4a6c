package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Participant operations

func (s *Storage) SaveParticipant(ctx context.Context, p *model.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	prev, err := s.GetParticipant(ctx, p.UserID)
	if err != nil && !errors.Is(err, model.ErrParticipantNotFound) {
		return err
	}

	mKey := membersKey(p.AuctionID)

	// Pipeline for atomic save + index updates. ZAddNX keeps the original
	// registration-order score when an existing participant is updated.
	pipe := s.client.Pipeline()
	if prev != nil && (prev.AuctionID != p.AuctionID || prev.Name != p.Name) {
		pipe.Del(ctx, nameIndexKey(prev.AuctionID, prev.Name))
	}
	if prev != nil && prev.AuctionID != p.AuctionID {
		// Moving auctions: leave the old room's member set
		pipe.ZRem(ctx, membersKey(prev.AuctionID), string(p.UserID))
	}
	pipe.Set(ctx, participantKey(p.UserID), data, s.cfg.ParticipantTTL)
	pipe.ZAddNX(ctx, mKey, redis.Z{
		Score:  float64(p.JoinedAt.UnixNano()),
		Member: string(p.UserID),
	})
	pipe.Set(ctx, nameIndexKey(p.AuctionID, p.Name), string(p.UserID), s.cfg.ParticipantTTL)
	pipe.Expire(ctx, mKey, s.cfg.ParticipantTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetParticipant(ctx context.Context, id model.UserID) (*model.Participant, error) {
	data, err := s.client.Get(ctx, participantKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}

	var p model.Participant
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) DeleteParticipant(ctx context.Context, id model.UserID) error {
	p, err := s.GetParticipant(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrParticipantNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, participantKey(id))
	pipe.ZRem(ctx, membersKey(p.AuctionID), string(id))
	pipe.Del(ctx, nameIndexKey(p.AuctionID, p.Name))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListParticipants(ctx context.Context, auctionID model.AuctionID) ([]*model.Participant, error) {
	ids, err := s.client.ZRange(ctx, membersKey(auctionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var result []*model.Participant
	for _, id := range ids {
		p, err := s.GetParticipant(ctx, model.UserID(id))
		if err != nil {
			if errors.Is(err, model.ErrParticipantNotFound) {
				// Expired value with a surviving index entry
				continue
			}
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Storage) FindParticipantByName(ctx context.Context, auctionID model.AuctionID, name string) (*model.Participant, error) {
	id, err := s.client.Get(ctx, nameIndexKey(auctionID, name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrParticipantNotFound
		}
		return nil, err
	}
	return s.GetParticipant(ctx, model.UserID(id))
}

// Auction operations

func (s *Storage) SaveAuction(ctx context.Context, auction *model.Auction) error {
	data, err := json.Marshal(auction)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, auctionKey(auction.ID), data, s.cfg.AuctionTTL).Err()
}

func (s *Storage) GetAuction(ctx context.Context, id model.AuctionID) (*model.Auction, error) {
	data, err := s.client.Get(ctx, auctionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAuctionNotFound
		}
		return nil, err
	}

	var auction model.Auction
	if err := json.Unmarshal(data, &auction); err != nil {
		return nil, err
	}
	return &auction, nil
}

func (s *Storage) DeleteAuction(ctx context.Context, id model.AuctionID) error {
	return s.client.Del(ctx, auctionKey(id)).Err()
}

func (s *Storage) AuctionExists(ctx context.Context, id model.AuctionID) (bool, error) {
	exists, err := s.client.Exists(ctx, auctionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
