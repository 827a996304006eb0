package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe/internal/dependencies/random"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
	"github.com/mcoot/tictactoe/internal/services/search"
)

func newEngineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Run the rules and search engines locally",
		Long: `Run the rules and search engines locally, without a server.

Boards are nine cells, row by row, using X, O and '.' for empty.
Slashes, pipes and spaces are ignored, so "XO./.X./..O" and "XO..X...O"
are the same board.`,
	}

	cmd.AddCommand(newEngineEvaluateCmd())
	cmd.AddCommand(newEngineMoveCmd())

	return cmd
}

func newEngineEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <board>",
		Short: "Report the result, next mover and legal moves of a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := model.ParseBoard(args[0])
			if err != nil {
				return err
			}

			output(cmd).Print(evaluate(board))
			return nil
		},
	}
}

func newEngineMoveCmd() *cobra.Command {
	var difficulty, mark string

	cmd := &cobra.Command{
		Use:   "move <board>",
		Short: "Choose a move for the side to play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := model.ParseBoard(args[0])
			if err != nil {
				return err
			}

			d, err := model.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}

			var m model.Mark
			if mark != "" {
				m, err = model.ParseMark(mark)
			} else {
				m, err = rules.NextMover(board, model.X)
			}
			if err != nil {
				return err
			}

			svc := search.NewService(search.DefaultStrategies(search.DefaultConfig(), random.New()), logger)
			res, err := svc.ChooseMove(cmd.Context(), board, d, m)
			if err != nil {
				return err
			}

			after, err := rules.ApplyMove(board, res.Move, m)
			if err != nil {
				return fmt.Errorf("engine chose an illegal move: %w", err)
			}

			pos := model.PositionOf(res.Move)
			output(cmd).Print(EngineMove{
				Mark:       string(m),
				Difficulty: string(d),
				Move:       res.Move,
				Row:        pos.Row,
				Col:        pos.Col,
				Score:      res.Score,
				Nodes:      res.Nodes,
				Board:      boardFromModel(after),
				Result:     resultFromModel(after),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", string(model.DifficultyHard), "Difficulty: easy, medium, hard")
	cmd.Flags().StringVarP(&mark, "mark", "m", "", "Mark to move (defaults to the side due to play)")

	return cmd
}

func evaluate(board model.Board) Evaluation {
	e := Evaluation{
		Board:      boardFromModel(board),
		Result:     resultFromModel(board),
		LegalMoves: []int{},
	}
	if !rules.Evaluate(board).IsTerminal() {
		e.LegalMoves = rules.LegalMoves(board)
		if next, err := rules.NextMover(board, model.X); err == nil {
			e.NextMover = string(next)
		}
	}
	return e
}

func boardFromModel(b model.Board) Board {
	cells := make([]string, model.CellCount)
	for i, m := range b {
		cells[i] = string(m)
	}
	return Board{Cells: cells, Grid: b.String()}
}

func resultFromModel(b model.Board) Result {
	result := rules.Evaluate(b)
	r := Result{Status: string(result.Status), Winner: string(result.Winner)}
	if _, line, ok := rules.WinningLine(b); ok {
		r.Line = line[:]
	}
	return r
}
