package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is a human who plays sessions against the computer
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool // true for players who never registered
	CreatedAt   time.Time
}

// IsAuthenticated returns true if the player logged in with credentials
func (p *Player) IsAuthenticated() bool {
	return p != nil && !p.IsGuest
}

// RegisteredPlayer holds login credentials for a non-guest Player.
// Kept apart from Player so the hash never travels with session state.
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // unique, immutable
	PasswordHash string // bcrypt
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
