package dto

import "time"

// LeaderboardEntry is one ranked row of a snapshot.
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	CumulativeScore float64 `json:"cumulative_score"`
	Accuracy        float64 `json:"accuracy"`
	ResolvedCount   int64   `json:"resolved_count"`
	IsCurrentUser   bool    `json:"is_current_user,omitempty"`
}

// LeaderboardSnapshot is an immutable, timestamped ordering derived
// from the stats store. It holds no reference back to live state.
type LeaderboardSnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Total       int                `json:"total"`
	Entries     []LeaderboardEntry `json:"entries"`
}
