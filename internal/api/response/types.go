package response

import (
	"time"

	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/auth"
	"github.com/mcoot/tictactoe/internal/services/game"
	"github.com/mcoot/tictactoe/internal/services/rules"
	"github.com/mcoot/tictactoe/internal/services/search"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Board represents a board as nine cells, row-major.
// Empty cells are represented as empty strings.
type Board struct {
	Cells []string `json:"cells"`
	Grid  string   `json:"grid"`
}

// BoardFromModel converts model.Board to response Board
func BoardFromModel(b model.Board) Board {
	cells := make([]string, model.CellCount)
	for i, m := range b {
		cells[i] = string(m)
	}
	return Board{Cells: cells, Grid: b.String()}
}

// Result represents the evaluation of a board
type Result struct {
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
	Line   []int  `json:"line,omitempty"`
}

// ResultFromBoard evaluates b, including the winning line if any
func ResultFromBoard(b model.Board) Result {
	result := rules.Evaluate(b)
	resp := Result{
		Status: string(result.Status),
		Winner: string(result.Winner),
	}
	if _, line, ok := rules.WinningLine(b); ok {
		resp.Line = line[:]
	}
	return resp
}

// Score represents a session's running score
type Score struct {
	Points          int `json:"points"`
	ConsecutiveWins int `json:"consecutive_wins"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Draws           int `json:"draws"`
	Rounds          int `json:"rounds"`
}

// ScoreFromModel converts model.Score
func ScoreFromModel(s model.Score) Score {
	return Score{
		Points:          s.Points,
		ConsecutiveWins: s.ConsecutiveWins,
		Wins:            s.Wins,
		Losses:          s.Losses,
		Draws:           s.Draws,
		Rounds:          s.Rounds,
	}
}

// Session represents a session in API responses
type Session struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Difficulty   string    `json:"difficulty"`
	HumanMark    string    `json:"human_mark"`
	ComputerMark string    `json:"computer_mark"`
	FirstMover   string    `json:"first_mover"`
	NextMover    string    `json:"next_mover,omitempty"`
	Board        Board     `json:"board"`
	Result       Result    `json:"result"`
	Score        Score     `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionFromModel converts model.Session
func SessionFromModel(s *model.Session) Session {
	var next string
	if s.State == model.SessionStateInProgress {
		if mover, err := game.NextMover(s); err == nil {
			next = string(mover)
		}
	}

	return Session{
		ID:           string(s.ID),
		State:        string(s.State),
		Difficulty:   string(s.Difficulty),
		HumanMark:    string(s.HumanMark),
		ComputerMark: string(s.ComputerMark()),
		FirstMover:   string(s.FirstMover),
		NextMover:    next,
		Board:        BoardFromModel(s.Board),
		Result:       ResultFromBoard(s.Board),
		Score:        ScoreFromModel(s.Score),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// SessionList is the response for listing sessions
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// SessionListFromModel converts a slice of sessions
func SessionListFromModel(sessions []*model.Session) SessionList {
	list := SessionList{Sessions: make([]Session, len(sessions))}
	for i, s := range sessions {
		list.Sessions[i] = SessionFromModel(s)
	}
	return list
}

// MoveResponse is the response after playing a move
type MoveResponse struct {
	Session      Session `json:"session"`
	HumanMove    int     `json:"human_move"`
	ComputerMove *int    `json:"computer_move"`
}

// MoveResponseFromOutcome converts a game.MoveOutcome
func MoveResponseFromOutcome(o *game.MoveOutcome) MoveResponse {
	return MoveResponse{
		Session:      SessionFromModel(o.Session),
		HumanMove:    o.HumanMove,
		ComputerMove: o.ComputerMove,
	}
}

// EvaluateResponse is the response for evaluating a board
type EvaluateResponse struct {
	Board      Board  `json:"board"`
	Result     Result `json:"result"`
	NextMover  string `json:"next_mover,omitempty"`
	LegalMoves []int  `json:"legal_moves"`
}

// EngineMoveResponse is the response for an engine move request
type EngineMoveResponse struct {
	Mark       string `json:"mark"`
	Difficulty string `json:"difficulty"`
	Move       int    `json:"move"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Score      int    `json:"score"`
	Nodes      int    `json:"nodes"`
	Board      Board  `json:"board"`
	Result     Result `json:"result"`
}

// EngineMoveFromResult describes a chosen move and the board after it
func EngineMoveFromResult(mark model.Mark, difficulty model.Difficulty, res search.Result, after model.Board) EngineMoveResponse {
	pos := model.PositionOf(res.Move)
	return EngineMoveResponse{
		Mark:       string(mark),
		Difficulty: string(difficulty),
		Move:       res.Move,
		Row:        pos.Row,
		Col:        pos.Col,
		Score:      res.Score,
		Nodes:      res.Nodes,
		Board:      BoardFromModel(after),
		Result:     ResultFromBoard(after),
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
