package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrUsernameTaken  = errors.New("username already taken")

	// Engine errors
	ErrIllegalMove  = errors.New("illegal move")
	ErrNoLegalMove  = errors.New("no legal move available")
	ErrInvalidBoard = errors.New("invalid board")
	ErrInvalidMark  = errors.New("invalid mark")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotSessionOwner   = errors.New("player does not own this session")
	ErrNotPlayerTurn     = errors.New("not this player's turn")
	ErrRoundNotStarted   = errors.New("round has not been started")
	ErrRoundInProgress   = errors.New("round is in progress")
	ErrRoundOver         = errors.New("round is already over")
	ErrLoginRequired     = errors.New("login required to play")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
