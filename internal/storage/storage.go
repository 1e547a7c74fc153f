package storage

import (
	"context"

	"github.com/ledgerbank/backend/internal/models"
)

type CardStore interface {
	// CardForAccount returns the oldest card of an open account.
	CardForAccount(ctx context.Context, accountID int64) (models.Card, error)
	CardByID(ctx context.Context, cardID int64) (models.Card, error)
	// SetCardBlocked stores blocked and returns the flag it replaced.
	SetCardBlocked(ctx context.Context, cardID int64, blocked bool) (bool, error)
}

type LoanStore interface {
	ApplyLoan(ctx context.Context, loan models.Loan) (models.Loan, models.LoanType, error)
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, nc models.NewCustomer) (models.ProvisionedCustomer, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
	CreateStaff(ctx context.Context, ns models.NewStaff) (models.Credential, error)
}

type CredentialStore interface {
	CredentialByEmail(ctx context.Context, email string) (models.Credential, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
