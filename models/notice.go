package models

import "time"

// Notice is a platform-wide announcement posted by an admin.
type Notice struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	CreatedBy int       `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification is a per-user message appended on wallet decisions and prize
// wins. Mark-as-read is best effort.
type Notification struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Message      string    `json:"message" db:"message"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	Read         bool      `json:"read" db:"read"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
