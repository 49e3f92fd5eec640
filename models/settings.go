package models

import "time"

// Settings is the single mutable platform configuration row. The admin signup
// code is only ever compared server-side and never serialized to clients.
type Settings struct {
	ID              int       `json:"-" db:"id"`
	AdminSignupCode string    `json:"-" db:"admin_signup_code"`
	MinWithdrawal   int       `json:"min_withdrawal" db:"min_withdrawal"`
	PayoutPlaces    int       `json:"payout_places" db:"payout_places"`
	PaymentNote     string    `json:"payment_note" db:"payment_note"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

const (
	DefaultMinWithdrawal = 200
	DefaultPayoutPlaces  = 3
)
