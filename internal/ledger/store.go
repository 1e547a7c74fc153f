package ledger

import (
	"context"
	"time"

	"github.com/ledgerbank/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the account directory and transaction log the engine runs against.
type Store interface {
	// WithinTx runs fn as one atomic unit. Either every write made through tx
	// is committed or none is. An error returned by fn rolls the unit back and
	// is returned unchanged.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// ReadSnapshot runs fn against one consistent view of the store. Reads
	// made through r observe no movement committed after the view was taken.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context, r Reader) error) error

	Reader
}

// Reader is the read side of a Store.
type Reader interface {
	// AccountSummary returns balance, card status and owner name.
	AccountSummary(ctx context.Context, accountID int64) (models.AccountSummary, error)

	// ListTransactions returns the records touching accountID inside w, newest first.
	ListTransactions(ctx context.Context, accountID int64, w Window) ([]models.TransactionRecord, error)
}

// Tx is the set of operations available inside an atomic unit.
type Tx interface {
	// LockAccount reads an account and holds it against concurrent
	// modification until the unit ends.
	LockAccount(ctx context.Context, accountID int64) (models.Account, error)

	SetBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error

	// AppendTransaction inserts rec and returns it with its store-assigned id.
	AppendTransaction(ctx context.Context, rec models.TransactionRecord) (models.TransactionRecord, error)
}

// Window bounds a statement by calendar day. End is inclusive of its whole day.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// From returns the inclusive lower bound, or nil when unbounded.
func (w Window) From() *time.Time {
	if w.Start == nil {
		return nil
	}
	t := truncateDay(*w.Start)
	return &t
}

// Until returns the exclusive upper bound, or nil when unbounded.
func (w Window) Until() *time.Time {
	if w.End == nil {
		return nil
	}
	t := truncateDay(*w.End).AddDate(0, 0, 1)
	return &t
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if from := w.From(); from != nil && t.Before(*from) {
		return false
	}
	if until := w.Until(); until != nil && !t.Before(*until) {
		return false
	}
	return true
}

func (w Window) validate() error {
	if w.Start != nil && w.End != nil && truncateDay(*w.Start).After(truncateDay(*w.End)) {
		return ErrInvalidWindow
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
