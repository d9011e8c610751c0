package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the direction of a wallet mutation.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Source tags recorded on wallet transactions. Refund sources carry the
// "refund:" prefix so reporting can separate compensations from grants.
const (
	SourceSessionStart     = "session_start"
	SourceChapterAdvance   = "chapter_advance"
	SourceSignupGrant      = "signup_grant"
	SourceAdminGrant       = "admin_grant"
	SourceRefundGeneration = "refund:generation_failed"
	SourceRefundRaceLoss   = "refund:advance_conflict"
)

// Transaction is one immutable row of the wallet audit trail. BalanceAfter
// snapshots the balance as it stood right after this mutation.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"userId" db:"user_id"`
	Type         TransactionType `json:"type" db:"type"`
	Source       string          `json:"source" db:"source"`
	Amount       int64           `json:"amount" db:"amount"`
	BalanceAfter int64           `json:"balanceAfter" db:"balance_after"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}
