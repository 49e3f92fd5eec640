package models

import "time"

// RequestStatus is shared by recharge and withdrawal requests. A request is
// terminal once approved or rejected.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type RechargeRequest struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	Username      string        `json:"username" db:"username"`
	Amount        int           `json:"amount" db:"amount"`
	Method        string        `json:"method" db:"method"`
	TransactionID string        `json:"transaction_id" db:"transaction_ref"`
	SenderNumber  string        `json:"sender_number" db:"sender_number"`
	SlipKey       *string       `json:"-" db:"slip_key"`
	SlipURL       *string       `json:"slip_url,omitempty" db:"-"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty" db:"decided_at"`
	DecidedBy     *int          `json:"decided_by,omitempty" db:"decided_by"`
}

type WithdrawRequest struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	Username      string        `json:"username" db:"username"`
	Amount        int           `json:"amount" db:"amount"`
	Method        string        `json:"method" db:"method"`
	AccountNumber string        `json:"account_number" db:"account_number"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty" db:"decided_at"`
	DecidedBy     *int          `json:"decided_by,omitempty" db:"decided_by"`
}
