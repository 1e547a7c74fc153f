package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLoanTerm applies when an application carries no due date.
const DefaultLoanTerm = 365 * 24 * time.Hour

type LoanType struct {
	ID               int64           `json:"id" db:"id"`
	Type             string          `json:"type" db:"type"`
	BaseInterestRate decimal.Decimal `json:"base_interest_rate" db:"base_interest_rate"`
}

type Loan struct {
	ID         int64           `json:"id" db:"id"`
	AccountID  int64           `json:"account_id" db:"account_id"`
	LoanTypeID int64           `json:"loan_type_id" db:"loan_type_id"`
	StartDate  time.Time       `json:"start_date" db:"start_date"`
	DueDate    time.Time       `json:"due_date" db:"due_date"`
	AmountPaid decimal.Decimal `json:"amount_paid" db:"amount_paid"`
}
