package audit

import (
	"time"

	"github.com/ledgerbank/backend/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Event types.
const (
	EventTransfer   = "TRANSFER"
	EventDeposit    = "DEPOSIT"
	EventWithdrawal = "WITHDRAWAL"
	EventError      = "ERROR"
)

type Event struct {
	Timestamp     time.Time       `json:"timestamp"`
	EventType     string          `json:"event_type"`
	TransactionID int64           `json:"transaction_id,omitempty"`
	AccountID     int64           `json:"account_id,omitempty"`
	FromAccount   *int64          `json:"from_account,omitempty"`
	ToAccount     *int64          `json:"to_account,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	ExecutedBy    *int64          `json:"executed_by,omitempty"`
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
}

// Logger writes one structured audit line per balance-affecting operation.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "audit").Logger()}
}

// LogMovement records a committed ledger entry.
func (a *Logger) LogMovement(eventType string, rec models.TransactionRecord) {
	a.write(Event{
		Timestamp:     rec.CreatedAt,
		EventType:     eventType,
		TransactionID: rec.ID,
		FromAccount:   rec.FromAccount,
		ToAccount:     rec.ToAccount,
		Amount:        rec.Amount,
		ExecutedBy:    rec.ExecutedBy,
		Status:        "SUCCESS",
	})
}

// LogError records a rejected or failed operation against accountID.
func (a *Logger) LogError(operation string, accountID int64, amount decimal.Decimal, err error) {
	if !models.FitsCurrency(amount) {
		// out-of-range amounts are not rendered
		amount = decimal.Zero
	}
	a.write(Event{
		Timestamp: time.Now().UTC(),
		EventType: EventError,
		AccountID: accountID,
		Amount:    amount,
		Status:    "FAILED:" + operation,
		Error:     err.Error(),
	})
}

func (a *Logger) write(event Event) {
	if a == nil {
		return
	}
	a.log.Info().Interface("audit", event).Msg("AUDIT")
}
