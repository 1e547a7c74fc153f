// Package postgres implements the ledger and collaborator stores on
// PostgreSQL through database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn inside one database transaction. Row locks taken through
// tx are held until COMMIT or ROLLBACK. A COMMIT failure is reported as is and
// never marked retryable.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}

	if err := fn(ctx, &pgTx{tx: dbTx}); err != nil {
		_ = dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// inTx is WithinTx for collaborator writes that need the raw transaction.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockAccount(ctx context.Context, accountID int64) (models.Account, error) {
	var acct models.Account
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, customer_id, balance, created_at
		FROM account
		WHERE id = $1 AND archived_at IS NULL
		FOR UPDATE`, accountID).Scan(&acct.ID, &acct.CustomerID, &acct.Balance, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, classify(fmt.Errorf("lock account %d: %w", accountID, err))
	}
	return acct, nil
}

func (t *pgTx) SetBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	result, err := t.tx.ExecContext(ctx, `UPDATE account SET balance = $1 WHERE id = $2`, balance, accountID)
	if err != nil {
		return classify(fmt.Errorf("update balance %d: %w", accountID, err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, rec models.TransactionRecord) (models.TransactionRecord, error) {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO "transaction" (from_account, to_account, amount, description, executed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rec.FromAccount, rec.ToAccount, rec.Amount, rec.Description, rec.ExecutedBy, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return models.TransactionRecord{}, classify(fmt.Errorf("insert transaction: %w", err))
	}
	return rec, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReadSnapshot runs fn inside a read-only REPEATABLE READ transaction, so
// every read made through r sees the same committed state.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, r ledger.Reader) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return classify(fmt.Errorf("begin snapshot: %w", err))
	}
	defer tx.Rollback()

	if err := fn(ctx, snapshot{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("end snapshot: %w", err))
	}
	return nil
}

type snapshot struct {
	q querier
}

func (v snapshot) AccountSummary(ctx context.Context, accountID int64) (models.AccountSummary, error) {
	return accountSummary(ctx, v.q, accountID)
}

func (v snapshot) ListTransactions(ctx context.Context, accountID int64, w ledger.Window) ([]models.TransactionRecord, error) {
	return listTransactions(ctx, v.q, accountID, w)
}

func (s *Store) AccountSummary(ctx context.Context, accountID int64) (models.AccountSummary, error) {
	return accountSummary(ctx, s.db, accountID)
}

func (s *Store) ListTransactions(ctx context.Context, accountID int64, w ledger.Window) ([]models.TransactionRecord, error) {
	return listTransactions(ctx, s.db, accountID, w)
}

func accountSummary(ctx context.Context, q querier, accountID int64) (models.AccountSummary, error) {
	var (
		summary   models.AccountSummary
		firstName string
		lastName  string
		blocked   sql.NullBool
	)
	err := q.QueryRowContext(ctx, `
		SELECT a.id, a.balance, c.first_name, c.last_name, card.is_blocked
		FROM account a
		JOIN customer c ON c.id = a.customer_id
		LEFT JOIN LATERAL (
			SELECT is_blocked FROM card WHERE card.account_id = a.id ORDER BY card.id LIMIT 1
		) card ON TRUE
		WHERE a.id = $1 AND a.archived_at IS NULL`, accountID,
	).Scan(&summary.AccountID, &summary.Balance, &firstName, &lastName, &blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AccountSummary{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return models.AccountSummary{}, classify(fmt.Errorf("account summary %d: %w", accountID, err))
	}

	summary.CustomerName = models.Customer{FirstName: firstName, LastName: lastName}.FullName()
	summary.CardStatus = models.CardStatusNone
	if blocked.Valid {
		summary.CardStatus = models.CardStatusLabel(blocked.Bool)
	}
	return summary, nil
}

func listTransactions(ctx context.Context, q querier, accountID int64, w ledger.Window) ([]models.TransactionRecord, error) {
	var (
		query strings.Builder
		args  = []any{accountID}
	)
	query.WriteString(`
		SELECT id, from_account, to_account, amount, description, executed_by, created_at
		FROM "transaction"
		WHERE (from_account = $1 OR to_account = $1)`)
	if from := w.From(); from != nil {
		args = append(args, *from)
		fmt.Fprintf(&query, " AND created_at >= $%d", len(args))
	}
	if until := w.Until(); until != nil {
		args = append(args, *until)
		fmt.Fprintf(&query, " AND created_at < $%d", len(args))
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := q.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, classify(fmt.Errorf("list transactions %d: %w", accountID, err))
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.FromAccount,
			&rec.ToAccount,
			&rec.Amount,
			&rec.Description,
			&rec.ExecutedBy,
			&rec.CreatedAt,
		); err != nil {
			return nil, classify(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

var (
	_ ledger.Store            = (*Store)(nil)
	_ storage.CardStore       = (*Store)(nil)
	_ storage.LoanStore       = (*Store)(nil)
	_ storage.CustomerStore   = (*Store)(nil)
	_ storage.CredentialStore = (*Store)(nil)
)
