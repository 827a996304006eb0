package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=32"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=32"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	HumanMark  string `json:"human_mark,omitempty" validate:"omitempty,oneof=X O x o"`
}

// StartRequest is the request body for starting a session's first round
type StartRequest struct {
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// MoveRequest is the request body for playing a move.
// Cells are numbered 0-8, row-major.
type MoveRequest struct {
	Index *int `json:"index" validate:"required,min=0,max=8"`
}

// EvaluateRequest is the request body for evaluating a board
type EvaluateRequest struct {
	Board string `json:"board" validate:"required"`
}

// EngineMoveRequest is the request body for asking the engine for a move.
// Mark defaults to whichever side is due to move.
type EngineMoveRequest struct {
	Board      string `json:"board" validate:"required"`
	Difficulty string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	Mark       string `json:"mark,omitempty" validate:"omitempty,oneof=X O x o"`
}
