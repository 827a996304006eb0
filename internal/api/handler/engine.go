package handler

import (
	"net/http"

	"github.com/mcoot/tictactoe/internal/api/apierr"
	"github.com/mcoot/tictactoe/internal/api/request"
	"github.com/mcoot/tictactoe/internal/api/response"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
	"github.com/mcoot/tictactoe/internal/services/search"
)

// EngineHandler exposes the rules and search engines without a session
type EngineHandler struct {
	searchService *search.Service
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(searchService *search.Service) *EngineHandler {
	return &EngineHandler{
		searchService: searchService,
	}
}

// parsePlayableBoard reads a board string and checks it could arise in play
func parsePlayableBoard(s string) (model.Board, error) {
	board, err := model.ParseBoard(s)
	if err != nil {
		return board, err
	}
	if err := rules.ValidateBoard(board, model.X); err != nil {
		return board, err
	}
	return board, nil
}

// Evaluate handles POST /api/v1/engine/evaluate
func (h *EngineHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req request.EvaluateRequest
	if err := request.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	board, err := model.ParseBoard(req.Board)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := response.EvaluateResponse{
		Board:      response.BoardFromModel(board),
		Result:     response.ResultFromBoard(board),
		LegalMoves: []int{},
	}
	if !rules.Evaluate(board).IsTerminal() {
		resp.LegalMoves = rules.LegalMoves(board)
		if next, err := rules.NextMover(board, model.X); err == nil {
			resp.NextMover = string(next)
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Move handles POST /api/v1/engine/move
func (h *EngineHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.EngineMoveRequest
	if err := request.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	board, err := parsePlayableBoard(req.Board)
	if err != nil {
		writeError(w, r, err)
		return
	}

	difficulty := model.DefaultDifficulty
	if req.Difficulty != "" {
		difficulty = model.Difficulty(req.Difficulty)
	}

	var mark model.Mark
	if req.Mark != "" {
		mark, err = model.ParseMark(req.Mark)
	} else {
		mark, err = rules.NextMover(board, model.X)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.searchService.ChooseMove(r.Context(), board, difficulty, mark)
	if err != nil {
		writeError(w, r, err)
		return
	}

	after, err := rules.ApplyMove(board, res.Move, mark)
	if err != nil {
		writeError(w, r, apierr.NewInternalError())
		return
	}

	response.JSON(w, http.StatusOK, response.EngineMoveFromResult(mark, difficulty, res, after))
}
