package sqlite

import (
	"time"

	"github.com/mcoot/tictactoe/internal/model"
)

// Timestamps are stored as Unix nanoseconds, with 0 for the zero time

type playerRow struct {
	ID          string `db:"id"`
	DisplayName string `db:"display_name"`
	IsGuest     bool   `db:"is_guest"`
	CreatedAt   int64  `db:"created_at"`
}

func toPlayerRow(p *model.Player) playerRow {
	return playerRow{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
		CreatedAt:   toUnixNano(p.CreatedAt),
	}
}

func (r playerRow) toModel() *model.Player {
	return &model.Player{
		ID:          model.PlayerID(r.ID),
		DisplayName: r.DisplayName,
		IsGuest:     r.IsGuest,
		CreatedAt:   fromUnixNano(r.CreatedAt),
	}
}

type registeredPlayerRow struct {
	PlayerID     string `db:"player_id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func toRegisteredPlayerRow(rp *model.RegisteredPlayer) registeredPlayerRow {
	return registeredPlayerRow{
		PlayerID:     string(rp.PlayerID),
		Username:     rp.Username,
		PasswordHash: rp.PasswordHash,
		CreatedAt:    toUnixNano(rp.CreatedAt),
		UpdatedAt:    toUnixNano(rp.UpdatedAt),
	}
}

func (r registeredPlayerRow) toModel() *model.RegisteredPlayer {
	return &model.RegisteredPlayer{
		PlayerID:     model.PlayerID(r.PlayerID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    fromUnixNano(r.CreatedAt),
		UpdatedAt:    fromUnixNano(r.UpdatedAt),
	}
}

type sessionRow struct {
	ID              string `db:"id"`
	PlayerID        string `db:"player_id"`
	State           string `db:"state"`
	Difficulty      string `db:"difficulty"`
	HumanMark       string `db:"human_mark"`
	FirstMover      string `db:"first_mover"`
	Board           string `db:"board"`
	Points          int    `db:"points"`
	ConsecutiveWins int    `db:"consecutive_wins"`
	Wins            int    `db:"wins"`
	Losses          int    `db:"losses"`
	Draws           int    `db:"draws"`
	Rounds          int    `db:"rounds"`
	CreatedAt       int64  `db:"created_at"`
	UpdatedAt       int64  `db:"updated_at"`
}

func toSessionRow(s *model.Session) sessionRow {
	return sessionRow{
		ID:              string(s.ID),
		PlayerID:        string(s.PlayerID),
		State:           string(s.State),
		Difficulty:      string(s.Difficulty),
		HumanMark:       string(s.HumanMark),
		FirstMover:      string(s.FirstMover),
		Board:           s.Board.String(),
		Points:          s.Score.Points,
		ConsecutiveWins: s.Score.ConsecutiveWins,
		Wins:            s.Score.Wins,
		Losses:          s.Score.Losses,
		Draws:           s.Score.Draws,
		Rounds:          s.Score.Rounds,
		CreatedAt:       toUnixNano(s.CreatedAt),
		UpdatedAt:       toUnixNano(s.UpdatedAt),
	}
}

func (r sessionRow) toModel() (*model.Session, error) {
	board, err := model.ParseBoard(r.Board)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		ID:         model.SessionID(r.ID),
		PlayerID:   model.PlayerID(r.PlayerID),
		State:      model.SessionState(r.State),
		Difficulty: model.Difficulty(r.Difficulty),
		HumanMark:  model.Mark(r.HumanMark),
		FirstMover: model.Mark(r.FirstMover),
		Board:      board,
		Score: model.Score{
			Points:          r.Points,
			ConsecutiveWins: r.ConsecutiveWins,
			Wins:            r.Wins,
			Losses:          r.Losses,
			Draws:           r.Draws,
			Rounds:          r.Rounds,
		},
		CreatedAt: fromUnixNano(r.CreatedAt),
		UpdatedAt: fromUnixNano(r.UpdatedAt),
	}, nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
