package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Play sessions against the computer",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionMoveCmd())
	cmd.AddCommand(newSessionActionCmd("continue", "Start the next round, keeping the score"))
	cmd.AddCommand(newSessionActionCmd("restart", "Reset the board and score"))
	cmd.AddCommand(newSessionDeleteCmd())

	return cmd
}

func sessionPath(id string, parts ...string) string {
	return "/api/v1/sessions/" + strings.Join(append([]string{url.PathEscape(id)}, parts...), "/")
}

func newSessionCreateCmd() *cobra.Command {
	var difficulty, mark string
	var start bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if difficulty != "" {
				req["difficulty"] = difficulty
			}
			if mark != "" {
				req["human_mark"] = strings.ToUpper(mark)
			}

			var result Session
			if err := client.Post(cmd.Context(), "/api/v1/sessions", req, &result); err != nil {
				return err
			}

			if start {
				if err := client.Post(cmd.Context(), sessionPath(result.ID, "start"), nil, &result); err != nil {
					return err
				}
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Difficulty: easy, medium, hard (default medium)")
	cmd.Flags().StringVarP(&mark, "mark", "m", "", "Your mark: X or O (X moves first)")
	cmd.Flags().BoolVar(&start, "start", false, "Start the first round immediately")

	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionList
			if err := client.Get(cmd.Context(), "/api/v1/sessions", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Get(cmd.Context(), sessionPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionStartCmd() *cobra.Command {
	var difficulty string

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start the first round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if difficulty != "" {
				req["difficulty"] = difficulty
			}

			var result Session
			if err := client.Post(cmd.Context(), sessionPath(args[0], "start"), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Override the session difficulty")

	return cmd
}

func newSessionMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <cell>",
		Short: "Play a move; cell is 0-8 or row,col",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseCell(args[1])
			if err != nil {
				return err
			}

			var result MoveResult
			if err := client.Post(cmd.Context(), sessionPath(args[0], "moves"), map[string]int{"index": index}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Post(cmd.Context(), sessionPath(args[0], action), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), sessionPath(args[0])); err != nil {
				return err
			}

			output(cmd).PrintMessage("Session deleted")
			return nil
		},
	}
}

// parseCell accepts a cell index (0-8) or a "row,col" pair
func parseCell(s string) (int, error) {
	if row, col, ok := strings.Cut(s, ","); ok {
		r, err1 := strconv.Atoi(strings.TrimSpace(row))
		c, err2 := strconv.Atoi(strings.TrimSpace(col))
		if err1 != nil || err2 != nil || r < 0 || r > 2 || c < 0 || c > 2 {
			return 0, fmt.Errorf("invalid cell %q: row and col must be 0-2", s)
		}
		return r*3 + c, nil
	}

	index, err := strconv.Atoi(s)
	if err != nil || index < 0 || index > 8 {
		return 0, fmt.Errorf("invalid cell %q: must be 0-8", s)
	}
	return index, nil
}
