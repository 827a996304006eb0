package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"

	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/storage"
)

// driverName is registered by the pure-Go glebarez/go-sqlite driver
const driverName = "sqlite"

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sqlx.DB
}

// New opens the database at path (":memory:" for a private in-memory
// database) and creates the schema if needed.
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serialises writers and keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO players (id, display_name, is_guest, created_at)
		VALUES (:id, :display_name, :is_guest, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			is_guest     = excluded.is_guest`,
		toPlayerRow(player))
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var row playerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM players WHERE id = ?`, string(id))
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, string(id))
	return err
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO registered_players (player_id, username, password_hash, created_at, updated_at)
		VALUES (:player_id, :username, :password_hash, :created_at, :updated_at)
		ON CONFLICT (player_id) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at    = excluded.updated_at`,
		toRegisteredPlayerRow(rp))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: registered_players.username") {
		return model.ErrUsernameTaken
	}
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var row registeredPlayerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM registered_players WHERE player_id = ?`, string(playerID))
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	var row registeredPlayerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM registered_players WHERE username = ?`, username)
	if err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (
			id, player_id, state, difficulty, human_mark, first_mover, board,
			points, consecutive_wins, wins, losses, draws, rounds, created_at, updated_at
		) VALUES (
			:id, :player_id, :state, :difficulty, :human_mark, :first_mover, :board,
			:points, :consecutive_wins, :wins, :losses, :draws, :rounds, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			state            = excluded.state,
			difficulty       = excluded.difficulty,
			human_mark       = excluded.human_mark,
			first_mover      = excluded.first_mover,
			board            = excluded.board,
			points           = excluded.points,
			consecutive_wins = excluded.consecutive_wins,
			wins             = excluded.wins,
			losses           = excluded.losses,
			draws            = excluded.draws,
			rounds           = excluded.rounds,
			updated_at       = excluded.updated_at`,
		toSessionRow(session))
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE id = ?`, string(id))
	if err != nil {
		return nil, notFound(err, model.ErrSessionNotFound)
	}
	return row.toModel()
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, string(id))
	return err
}

func (s *Storage) ListSessionsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Session, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM sessions WHERE player_id = ? ORDER BY created_at, id`, string(playerID))
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", row.ID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Revoked token operations

func (s *Storage) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, expires_at) VALUES (?, ?)
		ON CONFLICT (token_id) DO NOTHING`,
		tokenID, toUnixNano(expiresAt))
	return err
}

func (s *Storage) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.GetContext(ctx, &revoked,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = ?)`, tokenID)
	return revoked, err
}

func (s *Storage) PurgeRevokedTokens(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, toUnixNano(before))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// notFound maps sql.ErrNoRows to the domain error
func notFound(err error, domainErr error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domainErr
	}
	return err
}
