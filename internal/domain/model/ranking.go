package model

// RankingEntry is one leaderboard row: results from the trailing window
// joined to their owning user, ordered by score descending.
type RankingEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
