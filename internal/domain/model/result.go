package model

import "time"

// Result is one scored attempt by a user at a problem. Results are
// append-only; the newest row per (user, problem) pair is the current score.
// Score and AnsweredText are set by the scoring worker and stay nil until
// then; a missing score is never coerced to zero.
type Result struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProblemID    string    `json:"problem_id"`
	AnsweredText *string   `json:"answered_text,omitempty"`
	Score        *float64  `json:"score,omitempty"`
	TryFilePath  string    `json:"try_file_path"`
	CreatedAt    time.Time `json:"created_at"`
}
