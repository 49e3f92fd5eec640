package models

import "time"

// TransactionType classifies a ledger entry. Positive amounts are credits,
// negative amounts are debits.
type TransactionType string

const (
	TxRechargeRequest   TransactionType = "recharge_request"
	TxWithdrawalRequest TransactionType = "withdrawal_request"
	TxRecharge          TransactionType = "recharge"
	TxWithdrawal        TransactionType = "withdrawal"
	TxTournamentEntry   TransactionType = "tournament_entry"
	TxTournamentWinning TransactionType = "tournament_winning"
	TxKillReward        TransactionType = "kill_reward"
	TxAdminAdded        TransactionType = "admin_added"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusApproved  TransactionStatus = "approved"
	TxStatusRejected  TransactionStatus = "rejected"
	TxStatusCompleted TransactionStatus = "completed"
)

// Transaction is an append-only ledger entry owned by a user. Entries are
// never mutated after creation except for status transitions on the
// recharge/withdrawal request entries.
type Transaction struct {
	ID           int               `json:"id" db:"id"`
	UserID       int               `json:"user_id" db:"user_id"`
	Type         TransactionType   `json:"type" db:"type"`
	Amount       int               `json:"amount" db:"amount"`
	Status       TransactionStatus `json:"status" db:"status"`
	Method       *string           `json:"method,omitempty" db:"method"`
	TournamentID *int              `json:"tournament_id,omitempty" db:"tournament_id"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}
