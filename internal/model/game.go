package model

import (
	"fmt"
	"strings"
)

// GameStatus is the outcome class of a board
type GameStatus string

const (
	StatusInProgress GameStatus = "in_progress"
	StatusWin        GameStatus = "win"
	StatusDraw       GameStatus = "draw"
)

// GameResult is derived from a board and never stored on its own.
// Winner is only set when Status is StatusWin.
type GameResult struct {
	Status GameStatus
	Winner Mark
}

// InProgress returns the result for an undecided board
func InProgress() GameResult {
	return GameResult{Status: StatusInProgress}
}

// Win returns the result for a board won by m
func Win(m Mark) GameResult {
	return GameResult{Status: StatusWin, Winner: m}
}

// Draw returns the result for a full board with no winner
func Draw() GameResult {
	return GameResult{Status: StatusDraw}
}

// IsTerminal returns true once the round is decided
func (r GameResult) IsTerminal() bool {
	return r.Status == StatusWin || r.Status == StatusDraw
}

func (r GameResult) String() string {
	switch r.Status {
	case StatusWin:
		return fmt.Sprintf("%s wins", r.Winner)
	case StatusDraw:
		return "draw"
	default:
		return "in progress"
	}
}

// Difficulty selects how the computer picks its moves
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultDifficulty is used when a session is created without one
const DefaultDifficulty = DifficultyMedium

// ParseDifficulty accepts a difficulty name in any case
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// IsValid returns true for one of the known difficulties
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable label
func (d Difficulty) DisplayName() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return string(d)
	}
}

// ValidDifficulties returns all valid difficulties, weakest first
func ValidDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}
