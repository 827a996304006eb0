package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictactoe/internal/api/middleware"
	"github.com/mcoot/tictactoe/internal/api/request"
	"github.com/mcoot/tictactoe/internal/api/response"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/game"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	controller game.ControllerInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller game.ControllerInterface) *SessionHandler {
	return &SessionHandler{
		controller: controller,
	}
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateSessionRequest
	if err := request.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	opts := game.CreateOptions{Difficulty: model.Difficulty(req.Difficulty)}
	if req.HumanMark != "" {
		mark, err := model.ParseMark(req.HumanMark)
		if err != nil {
			writeError(w, r, err)
			return
		}
		opts.HumanMark = mark
	}

	session, err := h.controller.CreateSession(r.Context(), player, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, "/api/v1/sessions/"+string(session.ID), response.SessionFromModel(session))
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	sessions, err := h.controller.ListSessions(r.Context(), player.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionListFromModel(sessions))
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.controller.GetSession(r.Context(), sessionID(r), player.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	if err := h.controller.DeleteSession(r.Context(), sessionID(r), player.ID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

// Start handles POST /api/v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.StartRequest
	if err := request.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.controller.Start(r.Context(), sessionID(r), player, model.Difficulty(req.Difficulty))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Move handles POST /api/v1/sessions/{id}/moves
func (h *SessionHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.MoveRequest
	if err := request.Decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := h.controller.PlayMove(r.Context(), sessionID(r), player.ID, *req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveResponseFromOutcome(outcome))
}

// Continue handles POST /api/v1/sessions/{id}/continue
func (h *SessionHandler) Continue(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.controller.Continue(r.Context(), sessionID(r), player)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Restart handles POST /api/v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	session, err := h.controller.Restart(r.Context(), sessionID(r), player.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}
