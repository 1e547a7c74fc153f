package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one immutable ledger entry. A nil FromAccount is an
// external deposit, a nil ToAccount an external withdrawal, and a nil
// ExecutedBy a system-initiated movement.
type TransactionRecord struct {
	ID          int64           `json:"id" db:"id"`
	FromAccount *int64          `json:"from_account" db:"from_account"`
	ToAccount   *int64          `json:"to_account" db:"to_account"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	ExecutedBy  *int64          `json:"executed_by" db:"executed_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Touches reports whether the record debits or credits accountID.
func (r TransactionRecord) Touches(accountID int64) bool {
	return (r.FromAccount != nil && *r.FromAccount == accountID) ||
		(r.ToAccount != nil && *r.ToAccount == accountID)
}

// Statement entry types.
const (
	EntryTypeDeposit    = "deposit"
	EntryTypeWithdrawal = "withdrawal"
)

// StatementEntry is a ledger record seen from one account.
type StatementEntry struct {
	TransactionRecord
	Type         string `json:"type"`
	Counterparty *int64 `json:"counterparty"`
}

// Statement is the ordered, newest-first view of an account's ledger.
type Statement struct {
	AccountID      int64            `json:"account_id"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	Entries        []StatementEntry `json:"transactions"`
}

// TransactionCompleted is published after a money movement commits.
type TransactionCompleted struct {
	EventID       string          `json:"event_id"`
	TransactionID int64           `json:"transaction_id"`
	Kind          string          `json:"kind"`
	FromAccount   *int64          `json:"from_account"`
	ToAccount     *int64          `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
