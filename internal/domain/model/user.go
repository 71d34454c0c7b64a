package model

import (
	"time"
)

// User is provisioned on first login; the username is the login key.
// Rows are never mutated or deleted.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
