package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
	"github.com/mcoot/auctionroom-go/internal/dependencies/random"
	"github.com/mcoot/auctionroom-go/internal/engine"
	"github.com/mcoot/auctionroom-go/internal/identity"
	"github.com/mcoot/auctionroom-go/internal/services/auction"
	"github.com/mcoot/auctionroom-go/internal/services/directory"
	"github.com/mcoot/auctionroom-go/internal/services/session"
	"github.com/mcoot/auctionroom-go/internal/storage"
	"github.com/mcoot/auctionroom-go/internal/storage/memory"
	redisstorage "github.com/mcoot/auctionroom-go/internal/storage/redis"
	"github.com/mcoot/auctionroom-go/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

const secretLength = 48
const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Components
	IdentityCodec   *identity.Codec
	SessionRegistry *session.Registry
	Directory       *directory.Service
	AuctionRegistry *auction.Registry
	Engine          *engine.Engine
	Gateway         *ws.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// TokenSecret signs identity tokens. If empty a random secret is
	// generated, which invalidates outstanding tokens on restart.
	TokenSecret []byte
	// IdentityConfig holds token validity settings (optional)
	IdentityConfig identity.Config
	// EngineConfig holds coordination engine settings (optional)
	EngineConfig engine.Config
	// WSConfig holds websocket gateway settings (optional)
	WSConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	identityCfg := cfg.IdentityConfig
	identityCfg.Secret = cfg.TokenSecret
	if len(identityCfg.Secret) == 0 {
		identityCfg.Secret = []byte(rnd.String(secretLength, secretAlphabet))
		logger.Warn("no token secret configured, generated an ephemeral one")
	}

	gateway := ws.New(cfg.WSConfig, rnd, logger)
	app := newWithDependencies(store, clk, rnd, gateway, identityCfg, cfg.EngineConfig, logger)
	app.Gateway = gateway
	gateway.SetHandler(app.Engine)

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	gw engine.Gateway,
	identityCfg identity.Config,
	engineCfg engine.Config,
	logger *slog.Logger,
) *App {
	codec := identity.New(identityCfg, clk)
	sessions := session.New(logger)
	dir := directory.New(store, clk, logger)
	auctions := auction.New(store, clk, logger)
	eng := engine.New(sessions, dir, auctions, codec, gw, clk, engineCfg, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		IdentityCodec:   codec,
		SessionRegistry: sessions,
		Directory:       dir,
		AuctionRegistry: auctions,
		Engine:          eng,
	}
}
