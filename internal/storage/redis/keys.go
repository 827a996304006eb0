package redis

import (
	"fmt"

	"github.com/mcoot/tictactoe/internal/model"
)

// Key prefix for all tic-tac-toe data
const keyPrefix = "ttt"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// sessionsForPlayerIndexKey returns the Redis key for the SET of a player's session keys
func sessionsForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:sessions_for_player:%s", keyPrefix, playerID)
}

// revokedTokenKey returns the Redis key marking a token ID as revoked
func revokedTokenKey(tokenID string) string {
	return fmt.Sprintf("%s:revoked_token:%s", keyPrefix, tokenID)
}
