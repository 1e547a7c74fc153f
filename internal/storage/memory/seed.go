package memory

import (
	"strings"
	"time"

	"github.com/ledgerbank/backend/internal/models"
	"github.com/shopspring/decimal"
)

// Seeding and inspection helpers for tests and the in-memory dev mode.

// PutCustomer stores c as is and returns its id.
func (s *Store) PutCustomer(c models.Customer) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.bump(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.customers[c.ID] = c
	return c.ID
}

// PutAccount stores a as is and returns its id.
func (s *Store) PutAccount(a models.Account) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == 0 {
		a.ID = s.nextID()
	}
	s.bump(a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = a
	return a.ID
}

func (s *Store) PutCard(c models.Card) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.bump(c.ID)
	s.cards[c.ID] = c
	return c.ID
}

func (s *Store) PutLoanType(lt models.LoanType) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lt.ID == 0 {
		lt.ID = s.nextID()
	}
	s.bump(lt.ID)
	s.loanTypes[lt.ID] = lt
	return lt.ID
}

func (s *Store) PutCredential(c models.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.UserID == 0 {
		c.UserID = s.nextID()
	}
	s.bump(c.UserID)
	c.Email = strings.ToLower(c.Email)
	s.credentials[c.Email] = c
}

// Balance returns the committed balance of an account.
func (s *Store) Balance(accountID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountID].Balance
}

// TotalBalance sums every account balance.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, acct := range s.accounts {
		total = total.Add(acct.Balance)
	}
	return total
}

// Transactions returns a copy of the ledger in append order.
func (s *Store) Transactions() []models.TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.TransactionRecord, len(s.transactions))
	copy(out, s.transactions)
	return out
}

func (s *Store) Card(cardID int64) (models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	return c, ok
}

func (s *Store) Loans() []models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		out = append(out, l)
	}
	return out
}

func (s *Store) Customer(customerID int64) (models.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	return c, ok
}

func (s *Store) bump(id int64) {
	if id > s.seq {
		s.seq = id
	}
}

// SeedLoanTypes stores the loan products the PostgreSQL schema ships with.
func (s *Store) SeedLoanTypes() {
	for _, lt := range []models.LoanType{
		{Type: "Personal", BaseInterestRate: decimal.RequireFromString("9.50")},
		{Type: "Mortgage", BaseInterestRate: decimal.RequireFromString("4.25")},
		{Type: "Auto", BaseInterestRate: decimal.RequireFromString("6.75")},
	} {
		s.PutLoanType(lt)
	}
}
