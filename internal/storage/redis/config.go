package redis

import "time"

// Config holds Redis connection and TTL settings
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int

	// ParticipantTTL bounds how long a disconnected participant can
	// reclaim its slot. AuctionTTL bounds idle rooms.
	ParticipantTTL time.Duration
	AuctionTTL     time.Duration
}

// DefaultConfig returns sensible defaults for Redis storage
func DefaultConfig() Config {
	return Config{
		PoolSize:       10,
		MinIdleConns:   2,
		ParticipantTTL: 24 * time.Hour,
		AuctionTTL:     24 * time.Hour,
	}
}
