package scoring

import (
	"fmt"

	"github.com/mcoot/tictactoe/internal/model"
)

// Outcome is a finished round seen from the human's side
type Outcome string

const (
	OutcomeHumanWin    Outcome = "human_win"
	OutcomeComputerWin Outcome = "computer_win"
	OutcomeDraw        Outcome = "draw"
)

// Config holds the point values of the score law
type Config struct {
	WinPoints   int // Awarded for each human win
	LossPenalty int // Deducted for each computer win; points never drop below zero
	BonusStreak int // Consecutive human wins that earn a bonus; 0 disables it
	BonusPoints int
}

// DefaultConfig returns the standard score law: +1 per win, -1 per loss,
// and one bonus point for every third win in a row.
func DefaultConfig() Config {
	return Config{
		WinPoints:   1,
		LossPenalty: 1,
		BonusStreak: 3,
		BonusPoints: 1,
	}
}

// Service applies round results to a session score
type Service struct {
	cfg Config
}

// New creates a new scoring Service
func New(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// OutcomeFor classifies a terminal result for the player holding humanMark
func OutcomeFor(result model.GameResult, humanMark model.Mark) (Outcome, error) {
	switch result.Status {
	case model.StatusDraw:
		return OutcomeDraw, nil
	case model.StatusWin:
		if result.Winner == humanMark {
			return OutcomeHumanWin, nil
		}
		return OutcomeComputerWin, nil
	default:
		return "", fmt.Errorf("cannot score a round that is %s", result)
	}
}

// Record applies a terminal result to score and returns the updated score
func (s *Service) Record(score model.Score, result model.GameResult, humanMark model.Mark) (model.Score, error) {
	outcome, err := OutcomeFor(result, humanMark)
	if err != nil {
		return score, err
	}
	return s.Apply(score, outcome), nil
}

// Apply returns score updated for a single round outcome
func (s *Service) Apply(score model.Score, outcome Outcome) model.Score {
	score.Rounds++

	switch outcome {
	case OutcomeHumanWin:
		score.Wins++
		score.Points += s.cfg.WinPoints
		score.ConsecutiveWins++
		if s.cfg.BonusStreak > 0 && score.ConsecutiveWins >= s.cfg.BonusStreak {
			score.Points += s.cfg.BonusPoints
			score.ConsecutiveWins = 0
		}
	case OutcomeComputerWin:
		score.Losses++
		score.Points = max(score.Points-s.cfg.LossPenalty, 0)
		score.ConsecutiveWins = 0
	case OutcomeDraw:
		score.Draws++
		score.ConsecutiveWins = 0
	}

	return score
}
