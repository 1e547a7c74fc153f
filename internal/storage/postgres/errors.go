package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/lib/pq"
)

// PostgreSQL error codes the store reacts to.
const (
	codeNumericOutOfRange    = "22003"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// classify maps driver errors raised before COMMIT onto ledger sentinels.
// Serialization failures, deadlocks and broken connections did not apply
// anything and are marked retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", ledger.ErrRetryable, pqErr.Message)
		case codeNumericOutOfRange:
			return ledger.ErrBalanceLimit
		case codeCheckViolation:
			if pqErr.Constraint == "account_balance_check" {
				return ledger.ErrInsufficientFunds
			}
		}
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%w: %s", ledger.ErrRetryable, pqErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ledger.ErrRetryable, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}
