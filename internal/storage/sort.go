package storage

import (
	"sort"

	"github.com/mcoot/tictactoe/internal/model"
)

// SortSessions orders sessions by creation time, breaking ties by ID
func SortSessions(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
}
