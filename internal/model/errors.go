package model

import "errors"

// Common errors used across the application
var (
	// Participant errors
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateName       = errors.New("name already taken in this auction")

	// Auction errors
	ErrAuctionNotFound       = errors.New("auction not found")
	ErrAuctionAlreadyStarted = errors.New("auction has already started")
	ErrNotMaster             = errors.New("participant is not the auction master")
	ErrWrongAuction          = errors.New("identity is bound to a different auction")

	// Token errors
	ErrInvalidToken = errors.New("invalid or expired token")
)
