package models

import "time"

// PlayMode is the mode a participant entered with. On a duo tournament a
// player may still enter solo and pay the single fee.
type PlayMode string

const (
	PlaySolo PlayMode = "solo"
	PlayDuo  PlayMode = "duo"
)

type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	FFID         string    `json:"ffid" db:"ffid"`
	PlayMode     PlayMode  `json:"play_mode" db:"play_mode"`
	PartnerName  *string   `json:"partner_name,omitempty" db:"partner_name"`
	PartnerFFID  *string   `json:"partner_ffid,omitempty" db:"partner_ffid"`
	EntryPaid    int       `json:"entry_paid" db:"entry_paid"`
	Kills        int       `json:"kills" db:"kills"`
	Result       *int      `json:"result,omitempty" db:"result"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`
}
