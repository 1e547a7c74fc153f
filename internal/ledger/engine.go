package ledger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerbank/backend/internal/audit"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/events"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// MaxDescriptionLength bounds the free-text description of a transfer.
	MaxDescriptionLength = 100

	DefaultTransferDescription   = "Transfer"
	DefaultDepositDescription    = "Deposit"
	DefaultWithdrawalDescription = "Withdrawal"

	publishTimeout = 2 * time.Second
)

// Movement kinds carried on published events.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
)

// Result is the outcome of a committed money movement.
type Result struct {
	NewBalance    decimal.Decimal
	TransactionID int64
	Record        models.TransactionRecord
}

// TransferRequest moves Amount from From to To on behalf of ActorID.
type TransferRequest struct {
	From        int64
	To          int64
	Amount      decimal.Decimal
	Description string
	ActorID     int64
}

// Engine executes balance-affecting operations against a Store. It holds no
// mutable state of its own; the store is the only synchronization point.
type Engine struct {
	store     Store
	publisher events.Publisher
	audit     *audit.Logger
	log       zerolog.Logger
	cfg       config.LedgerConfig
	now       func() time.Time
}

type Option func(*Engine)

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithAudit(a *audit.Logger) Option {
	return func(e *Engine) { e.audit = a }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "ledger").Logger() }
}

// WithConfig sets store timeout and retry policy.
func WithConfig(cfg config.LedgerConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		publisher: events.NopPublisher{},
		log:       zerolog.Nop(),
		cfg: config.LedgerConfig{
			StoreTimeout: 5 * time.Second,
			MaxRetries:   3,
			RetryBackoff: 50 * time.Millisecond,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Deposit credits accountID with funds entering from outside the system.
func (e *Engine) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (Result, error) {
	if err := validateAmount(amount); err != nil {
		e.audit.LogError(KindDeposit, accountID, amount, err)
		return Result{}, err
	}

	var res Result
	err := e.atomically(ctx, func(ctx context.Context, tx Tx) error {
		acct, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		newBalance := acct.Balance.Add(amount)
		if newBalance.GreaterThan(models.MaxAmount) {
			return ErrBalanceLimit
		}
		if err := tx.SetBalance(ctx, acct.ID, newBalance); err != nil {
			return err
		}

		rec, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			ToAccount:   models.Int64Ptr(acct.ID),
			Amount:      amount,
			Description: DefaultDepositDescription,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return err
		}

		res = Result{NewBalance: newBalance, TransactionID: rec.ID, Record: rec}
		return nil
	})
	if err != nil {
		e.audit.LogError(KindDeposit, accountID, amount, err)
		return Result{}, err
	}

	e.committed(ctx, KindDeposit, audit.EventDeposit, res.Record)
	return res, nil
}

// Withdraw debits accountID with funds leaving the system.
func (e *Engine) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal, actorID int64) (Result, error) {
	if err := validateAmount(amount); err != nil {
		e.audit.LogError(KindWithdrawal, accountID, amount, err)
		return Result{}, err
	}

	var res Result
	err := e.atomically(ctx, func(ctx context.Context, tx Tx) error {
		acct, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if acct.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		newBalance := acct.Balance.Sub(amount)
		if err := tx.SetBalance(ctx, acct.ID, newBalance); err != nil {
			return err
		}

		rec, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			FromAccount: models.Int64Ptr(acct.ID),
			Amount:      amount,
			Description: DefaultWithdrawalDescription,
			ExecutedBy:  models.Int64Ptr(actorID),
			CreatedAt:   e.now(),
		})
		if err != nil {
			return err
		}

		res = Result{NewBalance: newBalance, TransactionID: rec.ID, Record: rec}
		return nil
	})
	if err != nil {
		e.audit.LogError(KindWithdrawal, accountID, amount, err)
		return Result{}, err
	}

	e.committed(ctx, KindWithdrawal, audit.EventWithdrawal, res.Record)
	return res, nil
}

// Transfer moves funds between two accounts and reports the sender's new balance.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	if err := validateTransfer(&req); err != nil {
		e.audit.LogError(KindTransfer, req.From, req.Amount, err)
		return Result{}, err
	}

	var res Result
	err := e.atomically(ctx, func(ctx context.Context, tx Tx) error {
		// Lock accounts in consistent order to prevent deadlocks
		firstLock, secondLock := req.From, req.To
		if firstLock > secondLock {
			firstLock, secondLock = secondLock, firstLock
		}

		first, err := tx.LockAccount(ctx, firstLock)
		if err != nil {
			return err
		}
		second, err := tx.LockAccount(ctx, secondLock)
		if err != nil {
			return err
		}

		sender, receiver := first, second
		if firstLock != req.From {
			sender, receiver = second, first
		}

		if sender.Balance.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}

		receiverBalance := receiver.Balance.Add(req.Amount)
		if receiverBalance.GreaterThan(models.MaxAmount) {
			return ErrBalanceLimit
		}

		senderBalance := sender.Balance.Sub(req.Amount)
		if err := tx.SetBalance(ctx, sender.ID, senderBalance); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, receiver.ID, receiverBalance); err != nil {
			return err
		}

		rec, err := tx.AppendTransaction(ctx, models.TransactionRecord{
			FromAccount: models.Int64Ptr(sender.ID),
			ToAccount:   models.Int64Ptr(receiver.ID),
			Amount:      req.Amount,
			Description: req.Description,
			ExecutedBy:  models.Int64Ptr(req.ActorID),
			CreatedAt:   e.now(),
		})
		if err != nil {
			return err
		}

		res = Result{NewBalance: senderBalance, TransactionID: rec.ID, Record: rec}
		return nil
	})
	if err != nil {
		e.audit.LogError(KindTransfer, req.From, req.Amount, err)
		return Result{}, err
	}

	e.committed(ctx, KindTransfer, audit.EventTransfer, res.Record)
	return res, nil
}

// GetBalance returns the current balance, card status and owner of an account.
func (e *Engine) GetBalance(ctx context.Context, accountID int64) (models.AccountSummary, error) {
	var summary models.AccountSummary
	err := e.read(ctx, func(ctx context.Context) error {
		var err error
		summary, err = e.store.AccountSummary(ctx, accountID)
		return err
	})
	return summary, err
}

// GetStatement returns every record touching accountID within w, newest first,
// each annotated with its direction relative to the account.
func (e *Engine) GetStatement(ctx context.Context, accountID int64, w Window) (models.Statement, error) {
	if err := w.validate(); err != nil {
		return models.Statement{}, err
	}

	var (
		summary models.AccountSummary
		records []models.TransactionRecord
	)
	err := e.read(ctx, func(ctx context.Context) error {
		return e.store.ReadSnapshot(ctx, func(ctx context.Context, r Reader) error {
			var err error
			if summary, err = r.AccountSummary(ctx, accountID); err != nil {
				return err
			}
			records, err = r.ListTransactions(ctx, accountID, w)
			return err
		})
	})
	if err != nil {
		return models.Statement{}, err
	}

	slices.SortStableFunc(records, func(a, b models.TransactionRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	entries := make([]models.StatementEntry, 0, len(records))
	for _, rec := range records {
		if !rec.Touches(accountID) {
			continue
		}
		entries = append(entries, annotate(accountID, rec))
	}

	return models.Statement{
		AccountID:      accountID,
		CurrentBalance: summary.Balance,
		Entries:        entries,
	}, nil
}

func annotate(accountID int64, rec models.TransactionRecord) models.StatementEntry {
	entry := models.StatementEntry{TransactionRecord: rec}
	if rec.FromAccount != nil && *rec.FromAccount == accountID {
		entry.Type = models.EntryTypeWithdrawal
		entry.Counterparty = rec.ToAccount
	} else {
		entry.Type = models.EntryTypeDeposit
		entry.Counterparty = rec.FromAccount
	}
	return entry
}

// atomically runs fn as one store unit, retrying transient failures. A retry
// is only attempted when the store reports that nothing was applied.
func (e *Engine) atomically(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return e.withRetry(ctx, func(ctx context.Context) error {
		return e.store.WithinTx(ctx, fn)
	})
}

func (e *Engine) read(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.withRetry(ctx, fn)
}

func (e *Engine) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = e.attempt(ctx, fn)
		if err == nil || IsBusinessError(err) {
			return err
		}
		if !errors.Is(err, ErrRetryable) || attempt >= e.cfg.MaxRetries || ctx.Err() != nil {
			break
		}

		e.log.Warn().Err(err).Int("attempt", attempt+1).Msg("retrying transient store failure")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, ctx.Err())
		case <-time.After(e.cfg.RetryBackoff * time.Duration(attempt+1)):
		}
	}

	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	e.log.Error().Err(err).Msg("store operation failed")
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func (e *Engine) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.cfg.StoreTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func (e *Engine) committed(ctx context.Context, kind, eventType string, rec models.TransactionRecord) {
	e.audit.LogMovement(eventType, rec)

	event := models.TransactionCompleted{
		EventID:       uuid.NewString(),
		TransactionID: rec.ID,
		Kind:          kind,
		FromAccount:   rec.FromAccount,
		ToAccount:     rec.ToAccount,
		Amount:        rec.Amount,
		OccurredAt:    rec.CreatedAt,
	}

	// the movement is already committed; a client disconnect must not drop the event
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.publisher.Publish(pubCtx, event); err != nil {
		e.log.Error().Err(err).Int64("transaction_id", rec.ID).Msg("failed to publish transaction event")
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !models.FitsCurrency(amount) {
		return ErrInvalidAmount
	}
	return nil
}

func validateTransfer(req *TransferRequest) error {
	if err := validateAmount(req.Amount); err != nil {
		return err
	}
	if req.From == req.To {
		return ErrSamePartyTransfer
	}
	if req.Description == "" {
		req.Description = DefaultTransferDescription
	}
	if len([]rune(req.Description)) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}
