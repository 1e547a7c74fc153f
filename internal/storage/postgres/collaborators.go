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
)

const cardColumns = `id, account_id, is_blocked, created_at`

func scanCard(row *sql.Row) (models.Card, error) {
	var card models.Card
	err := row.Scan(&card.ID, &card.AccountID, &card.IsBlocked, &card.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Card{}, storage.ErrCardNotFound
	}
	if err != nil {
		return models.Card{}, classify(err)
	}
	return card, nil
}

// CardForAccount returns the oldest card attached to accountID. Cards of
// archived accounts are not found.
func (s *Store) CardForAccount(ctx context.Context, accountID int64) (models.Card, error) {
	return scanCard(s.db.QueryRowContext(ctx, `
		SELECT card.id, card.account_id, card.is_blocked, card.created_at
		FROM card
		JOIN account a ON a.id = card.account_id
		WHERE card.account_id = $1 AND a.archived_at IS NULL
		ORDER BY card.id LIMIT 1`, accountID))
}

func (s *Store) CardByID(ctx context.Context, cardID int64) (models.Card, error) {
	return scanCard(s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM card WHERE id = $1`, cardID))
}

// SetCardBlocked stores the block flag and returns the previous one. The row
// is only written when the flag actually changes.
func (s *Store) SetCardBlocked(ctx context.Context, cardID int64, blocked bool) (bool, error) {
	var previous bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT is_blocked FROM card WHERE id = $1 FOR UPDATE`, cardID).Scan(&previous)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrCardNotFound
		}
		if err != nil {
			return classify(err)
		}
		if previous == blocked {
			return nil
		}

		_, err = tx.ExecContext(ctx, `UPDATE card SET is_blocked = $1 WHERE id = $2 AND is_blocked <> $1`, blocked, cardID)
		return classify(err)
	})
	return previous, err
}

// ApplyLoan records a loan after checking the account and loan type exist.
func (s *Store) ApplyLoan(ctx context.Context, loan models.Loan) (models.Loan, models.LoanType, error) {
	var lt models.LoanType
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM account WHERE id = $1 AND archived_at IS NULL`, loan.AccountID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrAccountNotFound
		}
		if err != nil {
			return classify(err)
		}

		err = tx.QueryRowContext(ctx,
			`SELECT id, type, base_interest_rate FROM loan_type WHERE id = $1`, loan.LoanTypeID,
		).Scan(&lt.ID, &lt.Type, &lt.BaseInterestRate)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrLoanTypeNotFound
		}
		if err != nil {
			return classify(err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO loan (account_id, loan_type_id, start_date, due_date, amount_paid)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			loan.AccountID, loan.LoanTypeID, loan.StartDate, loan.DueDate, loan.AmountPaid,
		).Scan(&loan.ID)
		if err != nil {
			return classify(fmt.Errorf("insert loan: %w", err))
		}
		return nil
	})
	if err != nil {
		return models.Loan{}, models.LoanType{}, err
	}
	return loan, lt, nil
}

func (s *Store) CredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	var cred models.Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, customer_id, account_id, employee_id, disabled_at
		FROM user_authentication
		WHERE email = $1`, strings.ToLower(email),
	).Scan(
		&cred.UserID,
		&cred.Email,
		&cred.PasswordHash,
		&cred.Role,
		&cred.CustomerID,
		&cred.AccountID,
		&cred.EmployeeID,
		&cred.DisabledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, storage.ErrCredentialNotFound
	}
	if err != nil {
		return models.Credential{}, classify(err)
	}
	return cred, nil
}

// CreateCustomer provisions customer, zero-balance account, card and
// credential in one transaction.
func (s *Store) CreateCustomer(ctx context.Context, nc models.NewCustomer) (models.ProvisionedCustomer, error) {
	var out models.ProvisionedCustomer
	email := strings.ToLower(nc.Email)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var gender sql.NullString
		if nc.Gender != "" {
			gender = sql.NullString{String: nc.Gender, Valid: true}
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO customer (first_name, last_name, email, dob, gender)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			nc.FirstName, nc.LastName, email, nc.DOB, gender,
		).Scan(&out.CustomerID); err != nil {
			return provisionError("insert customer", err)
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO account (customer_id, balance) VALUES ($1, 0) RETURNING id`, out.CustomerID,
		).Scan(&out.AccountID); err != nil {
			return provisionError("insert account", err)
		}

		if err := tx.QueryRowContext(ctx,
			`INSERT INTO card (account_id, is_blocked) VALUES ($1, FALSE) RETURNING id`, out.AccountID,
		).Scan(&out.CardID); err != nil {
			return provisionError("insert card", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_authentication (email, password_hash, role, customer_id, account_id)
			VALUES ($1, $2, $3, $4, $5)`,
			email, nc.PasswordHash, models.RoleCustomer, out.CustomerID, out.AccountID,
		)
		if err != nil {
			return provisionError("insert credential", err)
		}
		return nil
	})
	if err != nil {
		return models.ProvisionedCustomer{}, err
	}
	return out, nil
}

// DeleteCustomer soft-deletes the customer, archives its accounts and
// disables its credential.
func (s *Store) DeleteCustomer(ctx context.Context, customerID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE customer SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, customerID)
		if err != nil {
			return classify(err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return classify(err)
		}
		if rowsAffected == 0 {
			return storage.ErrCustomerNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE account SET archived_at = now() WHERE customer_id = $1 AND archived_at IS NULL`, customerID); err != nil {
			return classify(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_authentication SET disabled_at = now() WHERE customer_id = $1 AND disabled_at IS NULL`, customerID); err != nil {
			return classify(err)
		}
		return nil
	})
}

// CreateStaff inserts an employee and its admin or employee credential.
func (s *Store) CreateStaff(ctx context.Context, ns models.NewStaff) (models.Credential, error) {
	cred := models.Credential{
		Email:        strings.ToLower(ns.Email),
		PasswordHash: ns.PasswordHash,
		Role:         ns.Role,
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var employeeID int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO employee (first_name, last_name, email, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			ns.FirstName, ns.LastName, cred.Email, ns.Position,
		).Scan(&employeeID); err != nil {
			return provisionError("insert employee", err)
		}
		cred.EmployeeID = &employeeID

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO user_authentication (email, password_hash, role, employee_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			cred.Email, cred.PasswordHash, cred.Role, employeeID,
		).Scan(&cred.UserID); err != nil {
			return provisionError("insert credential", err)
		}
		return nil
	})
	if err != nil {
		return models.Credential{}, err
	}
	return cred, nil
}

func provisionError(step string, err error) error {
	if isUniqueViolation(err) {
		return storage.ErrDuplicateEmail
	}
	return classify(fmt.Errorf("%s: %w", step, err))
}
