package services

import (
	"sort"

	"github.com/cppla/waldo/models"
)

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// BuildLeaderboard orders users by points desc then id asc and numbers them 1..N.
// The input slice is not modified.
func BuildLeaderboard(users []models.User) []LeaderboardEntry {
	sorted := make([]models.User, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].ID < sorted[j].ID
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, u := range sorted {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.Points,
		})
	}
	return entries
}
