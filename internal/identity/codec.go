package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
	"github.com/mcoot/auctionroom-go/internal/model"
)

// Claims carries the stable user id alongside the registered JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Config holds configuration for the token codec
type Config struct {
	Secret   []byte
	Validity time.Duration
}

// DefaultConfig returns default codec configuration
func DefaultConfig() Config {
	return Config{
		Validity: 24 * time.Hour,
	}
}

// Codec mints and parses the opaque identity tokens clients present on
// connect. It is stateless: a token is reconstructible from the secret alone
// and nothing is stored server-side.
type Codec struct {
	secret   []byte
	validity time.Duration
	clock    clock.Clock
}

// New creates a new token Codec
func New(cfg Config, clk clock.Clock) *Codec {
	if cfg.Validity == 0 {
		cfg.Validity = DefaultConfig().Validity
	}
	return &Codec{
		secret:   cfg.Secret,
		validity: cfg.Validity,
		clock:    clk,
	}
}

// Mint generates a fresh stable user id and returns it with a signed token
// expiring after the configured validity window.
func (c *Codec) Mint() (string, model.UserID, error) {
	userID := model.UserID(uuid.NewString())
	token, err := c.MintFor(userID)
	if err != nil {
		return "", "", err
	}
	return token, userID, nil
}

// MintFor signs a token for an existing user id
func (c *Codec) MintFor(userID model.UserID) (string, error) {
	now := c.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		UserID: string(userID),
	})
	return token.SignedString(c.secret)
}

// Parse decodes a token and returns the user id it binds.
// Malformed, badly-signed and expired tokens all yield ErrInvalidToken;
// callers treat that as "no identity", never as a hard failure.
func (c *Codec) Parse(tokenString string) (model.UserID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", model.ErrInvalidToken
	}
	return model.UserID(claims.UserID), nil
}
