package model

import "time"

// SessionID uniquely identifies a play session
type SessionID string

// SessionState represents the current phase of a session
type SessionState string

const (
	SessionStateNotStarted SessionState = "not_started" // Waiting for the player to pick a difficulty
	SessionStateInProgress SessionState = "in_progress" // Round being played
	SessionStateWon        SessionState = "won"         // Round ended with a completed line
	SessionStateDrawn      SessionState = "drawn"       // Round ended on a full board
)

// Score accumulates across rounds of a session and is only reset on restart
type Score struct {
	Points          int
	ConsecutiveWins int
	Wins            int
	Losses          int
	Draws           int
	Rounds          int
}

// Session is a human playing consecutive rounds against the computer
type Session struct {
	ID         SessionID
	PlayerID   PlayerID
	State      SessionState
	Difficulty Difficulty

	HumanMark  Mark // Mark placed by the player
	FirstMover Mark // Mark that opens every round

	Board Board
	Score Score

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputerMark returns the mark played by the computer
func (s *Session) ComputerMark() Mark {
	return s.HumanMark.Opponent()
}

// IsRoundOver returns true if the current round has been decided
func (s *Session) IsRoundOver() bool {
	return s.State == SessionStateWon || s.State == SessionStateDrawn
}

// ComputerMovesFirst returns true if the computer opens each round
func (s *Session) ComputerMovesFirst() bool {
	return s.FirstMover == s.ComputerMark()
}
