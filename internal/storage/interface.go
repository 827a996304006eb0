package storage

import (
	"context"
	"time"

	"github.com/mcoot/tictactoe/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations.
	// SaveRegisteredPlayer fails with model.ErrUsernameTaken when another
	// player already holds the username.
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	// ListSessionsForPlayer returns the player's sessions, oldest first
	ListSessionsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Session, error)

	// Revoked token operations, keyed by token ID. A revocation need only be
	// kept until expiresAt, after which the token is rejected anyway.
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	// PurgeRevokedTokens drops revocations that expired before the given time
	PurgeRevokedTokens(ctx context.Context, before time.Time) (int, error)
}
