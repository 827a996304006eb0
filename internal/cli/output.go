package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case Session:
		o.printSession(v)
	case SessionList:
		o.printSessionList(v)
	case MoveResult:
		o.printMoveResult(v)
	case Evaluation:
		o.printEvaluation(v)
	case EngineMove:
		o.printEngineMove(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Board response type: nine cells, row-major, "" for empty
type Board struct {
	Cells []string `json:"cells"`
	Grid  string   `json:"grid"`
}

// Result response type
type Result struct {
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
	Line   []int  `json:"line,omitempty"`
}

// Score response type
type Score struct {
	Points          int `json:"points"`
	ConsecutiveWins int `json:"consecutive_wins"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Draws           int `json:"draws"`
	Rounds          int `json:"rounds"`
}

// Session response type
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

// SessionList response type
type SessionList struct {
	Sessions []Session `json:"sessions"`
}

// MoveResult response type
type MoveResult struct {
	Session      Session `json:"session"`
	HumanMove    int     `json:"human_move"`
	ComputerMove *int    `json:"computer_move"`
}

// Evaluation response type
type Evaluation struct {
	Board      Board  `json:"board"`
	Result     Result `json:"result"`
	NextMover  string `json:"next_mover,omitempty"`
	LegalMoves []int  `json:"legal_moves"`
}

// EngineMove response type
type EngineMove struct {
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

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	if !a.ExpiresAt.IsZero() {
		fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Local().Format(time.RFC1123))
	}
}

func (o *Output) printSession(s Session) {
	fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	fmt.Fprintf(o.w, "State: %s\n", s.State)
	fmt.Fprintf(o.w, "Difficulty: %s\n", s.Difficulty)
	fmt.Fprintf(o.w, "You: %s  Computer: %s\n", s.HumanMark, s.ComputerMark)
	o.printScore(s.Score)

	if s.State == "not_started" {
		return
	}

	fmt.Fprintln(o.w)
	o.printBoard(s.Board)
	fmt.Fprintln(o.w)

	switch {
	case s.Result.Status == "win" && s.Result.Winner == s.HumanMark:
		fmt.Fprintln(o.w, "You win!")
	case s.Result.Status == "win":
		fmt.Fprintln(o.w, "The computer wins.")
	case s.Result.Status == "draw":
		fmt.Fprintln(o.w, "It's a draw.")
	case s.NextMover == s.HumanMark:
		fmt.Fprintf(o.w, "Your move (%s).\n", s.HumanMark)
	}
}

func (o *Output) printScore(s Score) {
	fmt.Fprintf(o.w, "Points: %d (streak %d)  W/L/D: %d/%d/%d over %d rounds\n",
		s.Points, s.ConsecutiveWins, s.Wins, s.Losses, s.Draws, s.Rounds)
}

func (o *Output) printSessionList(l SessionList) {
	if len(l.Sessions) == 0 {
		fmt.Fprintln(o.w, "No sessions")
		return
	}
	for _, s := range l.Sessions {
		fmt.Fprintf(o.w, "%s  %-11s  %-6s  you=%s  points=%d  rounds=%d\n",
			s.ID, s.State, s.Difficulty, s.HumanMark, s.Score.Points, s.Score.Rounds)
	}
}

func (o *Output) printMoveResult(m MoveResult) {
	fmt.Fprintf(o.w, "You played %d", m.HumanMove)
	if m.ComputerMove != nil {
		fmt.Fprintf(o.w, ", computer played %d", *m.ComputerMove)
	}
	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w)
	o.printSession(m.Session)
}

func (o *Output) printEvaluation(e Evaluation) {
	o.printBoard(e.Board)
	fmt.Fprintln(o.w)
	fmt.Fprintf(o.w, "Result: %s\n", describeResult(e.Result))
	if e.NextMover != "" {
		fmt.Fprintf(o.w, "Next: %s\n", e.NextMover)
	}
	if len(e.LegalMoves) > 0 {
		moves := make([]string, len(e.LegalMoves))
		for i, m := range e.LegalMoves {
			moves[i] = strconv.Itoa(m)
		}
		fmt.Fprintf(o.w, "Legal moves: %s\n", strings.Join(moves, " "))
	}
}

func (o *Output) printEngineMove(m EngineMove) {
	fmt.Fprintf(o.w, "%s (%s) plays %d (row %d, col %d)\n", m.Mark, m.Difficulty, m.Move, m.Row, m.Col)
	fmt.Fprintf(o.w, "Score: %d  Nodes: %d\n", m.Score, m.Nodes)
	fmt.Fprintln(o.w)
	o.printBoard(m.Board)
	if m.Result.Status != "in_progress" {
		fmt.Fprintln(o.w)
		fmt.Fprintf(o.w, "Result: %s\n", describeResult(m.Result))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}

// printBoard renders the 3x3 grid; empty cells show their index
func (o *Output) printBoard(b Board) {
	for row := 0; row < 3; row++ {
		if row > 0 {
			fmt.Fprintln(o.w, "---+---+---")
		}
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cells[col] = strconv.Itoa(i)
			if i < len(b.Cells) && b.Cells[i] != "" {
				cells[col] = b.Cells[i]
			}
		}
		fmt.Fprintf(o.w, " %s | %s | %s\n", cells[0], cells[1], cells[2])
	}
}

func describeResult(r Result) string {
	switch r.Status {
	case "win":
		return r.Winner + " wins"
	case "draw":
		return "draw"
	default:
		return "in progress"
	}
}
