package model

import "time"

// Problem is a pronunciation prompt with a reference answer recording.
// AnswerURL is a short-lived presigned link to that recording, set on
// catalog reads and never persisted.
type Problem struct {
	ID             string    `json:"id"`
	GenreID        string    `json:"genre_id"`
	Text           string    `json:"text"`
	AnswerFilePath string    `json:"answer_file_path"`
	AnswerURL      string    `json:"answer_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Genre struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"` // slug form of DisplayName
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
