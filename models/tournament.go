package models

import "time"

// TournamentStatus represents tournament statuses matching the ENUM in the DB.
// The lifecycle is strictly upcoming -> live -> completed; completed is terminal.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentType distinguishes solo and duo matches. Duo entries with a
// partner pay double the entry fee.
type TournamentType string

const (
	TypeSolo TournamentType = "solo"
	TypeDuo  TournamentType = "duo"
)

type Tournament struct {
	ID            int              `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	Type          TournamentType   `json:"type" db:"type"`
	EntryFee      int              `json:"entry_fee" db:"entry_fee"`
	PrizePool     int              `json:"prize_pool" db:"prize_pool"`
	KillReward    int              `json:"kill_reward" db:"kill_reward"`
	MaxPlayers    int              `json:"max_players" db:"max_players"`
	Schedule      time.Time        `json:"schedule" db:"schedule"`
	Status        TournamentStatus `json:"status" db:"status"`
	JoinedPlayers int              `json:"joined_players" db:"joined_players"`
	RoomID        *string          `json:"room_id,omitempty" db:"room_id"`
	RoomPassword  *string          `json:"room_password,omitempty" db:"room_password"`
	LiveAt        *time.Time       `json:"live_at,omitempty" db:"live_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	BannerKey     *string          `json:"-" db:"banner_key"`
	BannerURL     *string          `json:"banner_url,omitempty" db:"-"`
	CreatedBy     int              `json:"created_by" db:"created_by"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`

	Participants []Participant     `json:"participants,omitempty" db:"-"`
	Results      *TournamentResult `json:"results,omitempty" db:"-"`
}

// TournamentResult is the immutable record written once when a tournament
// completes. A tournament never has more than one.
type TournamentResult struct {
	ID           int           `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	TotalPlayers int           `json:"total_players" db:"total_players"`
	CalculatedAt time.Time     `json:"calculated_at" db:"calculated_at"`
	Winners      []WinnerEntry `json:"winners" db:"-"`
}

type WinnerEntry struct {
	ID       int    `json:"id" db:"id"`
	ResultID int    `json:"-" db:"result_id"`
	UserID   int    `json:"user_id" db:"user_id"`
	Name     string `json:"name" db:"name"`
	Place    int    `json:"place" db:"place"`
	Prize    int    `json:"prize" db:"prize"`
	Kills    int    `json:"kills" db:"kills"`
}
