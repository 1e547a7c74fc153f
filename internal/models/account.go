package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// balances and amounts travel as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	// CurrencyPlaces is the number of fractional digits a monetary amount may carry.
	CurrencyPlaces = 2

	// currencyPrecision is the total digit count of a NUMERIC(14, 2) money column.
	currencyPrecision = 14

	// maxWrittenScale bounds how many fractional digits, trailing zeros
	// included, an amount may be written with.
	maxWrittenScale = 18
)

// MaxAmount is the largest amount or balance a money column holds.
var MaxAmount = decimal.New(99999999999999, -CurrencyPlaces)

// FitsCurrency reports whether d carries at most CurrencyPlaces fractional
// digits and lies within MaxAmount of zero. The magnitude is checked on the
// exponent and coefficient before any rescaling.
func FitsCurrency(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < -maxWrittenScale {
		return false
	}
	if d.Sign() == 0 {
		return true
	}
	if d.NumDigits()+exp > currencyPrecision-CurrencyPlaces {
		return false
	}
	if !d.Equal(d.Round(CurrencyPlaces)) {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxAmount)
}

// Account is a customer's balance-holding account.
type Account struct {
	ID         int64           `json:"id" db:"id"`
	CustomerID int64           `json:"customer_id" db:"customer_id"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	ArchivedAt *time.Time      `json:"archived_at,omitempty" db:"archived_at"`
}

// Card status labels exposed to clients.
const (
	CardStatusActive  = "Active"
	CardStatusBlocked = "Blocked"
	CardStatusNone    = "No Card"
)

// CardStatusLabel renders a block flag as a client-facing label.
func CardStatusLabel(isBlocked bool) string {
	if isBlocked {
		return CardStatusBlocked
	}
	return CardStatusActive
}

// AccountSummary is the balance enquiry view of an account.
type AccountSummary struct {
	AccountID    int64           `json:"account_id"`
	Balance      decimal.Decimal `json:"balance"`
	CardStatus   string          `json:"card_status"`
	CustomerName string          `json:"customer_name"`
}
