package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/shopspring/decimal"
)

// Store is an in-memory implementation of every store contract. A single
// mutex serializes atomic units, so a unit observes and commits a consistent
// snapshot.
type Store struct {
	mu sync.Mutex

	accounts     map[int64]models.Account
	customers    map[int64]models.Customer
	employees    map[int64]models.Employee
	cards        map[int64]models.Card
	loanTypes    map[int64]models.LoanType
	loans        map[int64]models.Loan
	credentials  map[string]models.Credential
	transactions []models.TransactionRecord

	seq int64
}

func NewStore() *Store {
	return &Store{
		accounts:    make(map[int64]models.Account),
		customers:   make(map[int64]models.Customer),
		employees:   make(map[int64]models.Employee),
		cards:       make(map[int64]models.Card),
		loanTypes:   make(map[int64]models.LoanType),
		loans:       make(map[int64]models.Loan),
		credentials: make(map[string]models.Credential),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// WithinTx stages every write of fn and applies them only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, balances: make(map[int64]decimal.Decimal)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for id, balance := range tx.balances {
		acct := s.accounts[id]
		acct.Balance = balance
		s.accounts[id] = acct
	}
	for _, rec := range tx.records {
		rec.ID = s.nextID()
		s.transactions = append(s.transactions, rec)
	}
	return nil
}

type memTx struct {
	store    *Store
	balances map[int64]decimal.Decimal
	records  []models.TransactionRecord
	pending  int64
}

func (t *memTx) LockAccount(_ context.Context, accountID int64) (models.Account, error) {
	acct, ok := t.store.accounts[accountID]
	if !ok || acct.ArchivedAt != nil {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	if balance, staged := t.balances[accountID]; staged {
		acct.Balance = balance
	}
	return acct, nil
}

func (t *memTx) SetBalance(_ context.Context, accountID int64, balance decimal.Decimal) error {
	if _, ok := t.store.accounts[accountID]; !ok {
		return ledger.ErrAccountNotFound
	}
	if balance.IsNegative() {
		return ledger.ErrInsufficientFunds
	}
	if balance.GreaterThan(models.MaxAmount) {
		return ledger.ErrBalanceLimit
	}
	t.balances[accountID] = balance
	return nil
}

// AppendTransaction assigns the id it will carry once committed.
func (t *memTx) AppendTransaction(_ context.Context, rec models.TransactionRecord) (models.TransactionRecord, error) {
	if rec.Amount.Sign() <= 0 {
		return models.TransactionRecord{}, ledger.ErrInvalidAmount
	}
	if rec.FromAccount == nil && rec.ToAccount == nil {
		return models.TransactionRecord{}, ledger.ErrAccountNotFound
	}
	t.pending++
	rec.ID = t.store.seq + t.pending
	t.records = append(t.records, rec)
	return rec, nil
}

// ReadSnapshot holds the store lock while fn runs.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, r ledger.Reader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, snapshot{store: s})
}

// snapshot reads a store whose lock is already held.
type snapshot struct {
	store *Store
}

func (v snapshot) AccountSummary(_ context.Context, accountID int64) (models.AccountSummary, error) {
	return v.store.accountSummary(accountID)
}

func (v snapshot) ListTransactions(_ context.Context, accountID int64, w ledger.Window) ([]models.TransactionRecord, error) {
	return v.store.listTransactions(accountID, w), nil
}

func (s *Store) AccountSummary(_ context.Context, accountID int64) (models.AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountSummary(accountID)
}

func (s *Store) accountSummary(accountID int64) (models.AccountSummary, error) {
	acct, ok := s.accounts[accountID]
	if !ok || acct.ArchivedAt != nil {
		return models.AccountSummary{}, ledger.ErrAccountNotFound
	}

	summary := models.AccountSummary{
		AccountID:  acct.ID,
		Balance:    acct.Balance,
		CardStatus: models.CardStatusNone,
	}
	if c, ok := s.customers[acct.CustomerID]; ok {
		summary.CustomerName = c.FullName()
	}
	if card, ok := s.cardForAccount(accountID); ok {
		summary.CardStatus = models.CardStatusLabel(card.IsBlocked)
	}
	return summary, nil
}

func (s *Store) ListTransactions(_ context.Context, accountID int64, w ledger.Window) ([]models.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTransactions(accountID, w), nil
}

func (s *Store) listTransactions(accountID int64, w ledger.Window) []models.TransactionRecord {
	var out []models.TransactionRecord
	for i := len(s.transactions) - 1; i >= 0; i-- {
		rec := s.transactions[i]
		if rec.Touches(accountID) && w.Contains(rec.CreatedAt) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Store) cardForAccount(accountID int64) (models.Card, bool) {
	var (
		found models.Card
		ok    bool
	)
	for _, card := range s.cards {
		if card.AccountID == accountID && (!ok || card.ID < found.ID) {
			found, ok = card, true
		}
	}
	return found, ok
}

func (s *Store) CardForAccount(_ context.Context, accountID int64) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, ok := s.accounts[accountID]; !ok || acct.ArchivedAt != nil {
		return models.Card{}, storage.ErrCardNotFound
	}
	card, ok := s.cardForAccount(accountID)
	if !ok {
		return models.Card{}, storage.ErrCardNotFound
	}
	return card, nil
}

// SetCardBlocked stores the block flag and returns the previous one.
func (s *Store) SetCardBlocked(_ context.Context, cardID int64, blocked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok {
		return false, storage.ErrCardNotFound
	}
	previous := card.IsBlocked
	if previous != blocked {
		card.IsBlocked = blocked
		s.cards[cardID] = card
	}
	return previous, nil
}

func (s *Store) ApplyLoan(_ context.Context, loan models.Loan) (models.Loan, models.LoanType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[loan.AccountID]
	if !ok || acct.ArchivedAt != nil {
		return models.Loan{}, models.LoanType{}, ledger.ErrAccountNotFound
	}
	lt, ok := s.loanTypes[loan.LoanTypeID]
	if !ok {
		return models.Loan{}, models.LoanType{}, storage.ErrLoanTypeNotFound
	}

	loan.ID = s.nextID()
	s.loans[loan.ID] = loan
	return loan, lt, nil
}

func (s *Store) CredentialByEmail(_ context.Context, email string) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[strings.ToLower(email)]
	if !ok {
		return models.Credential{}, storage.ErrCredentialNotFound
	}
	return cred, nil
}

// CreateCustomer provisions customer, zero-balance account, card and credential.
func (s *Store) CreateCustomer(_ context.Context, nc models.NewCustomer) (models.ProvisionedCustomer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(nc.Email)
	if _, taken := s.credentials[email]; taken {
		return models.ProvisionedCustomer{}, storage.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	customer := models.Customer{
		ID:        s.nextID(),
		FirstName: nc.FirstName,
		LastName:  nc.LastName,
		Email:     email,
		DOB:       nc.DOB,
		Gender:    nc.Gender,
		CreatedAt: now,
	}
	s.customers[customer.ID] = customer

	acct := models.Account{ID: s.nextID(), CustomerID: customer.ID, Balance: decimal.Zero, CreatedAt: now}
	s.accounts[acct.ID] = acct

	card := models.Card{ID: s.nextID(), AccountID: acct.ID, CreatedAt: now}
	s.cards[card.ID] = card

	s.credentials[email] = models.Credential{
		UserID:       s.nextID(),
		Email:        email,
		PasswordHash: nc.PasswordHash,
		Role:         models.RoleCustomer,
		CustomerID:   models.Int64Ptr(customer.ID),
		AccountID:    models.Int64Ptr(acct.ID),
	}

	return models.ProvisionedCustomer{CustomerID: customer.ID, AccountID: acct.ID, CardID: card.ID}, nil
}

// DeleteCustomer archives the customer, its accounts and its credential.
func (s *Store) DeleteCustomer(_ context.Context, customerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[customerID]
	if !ok || customer.DeletedAt != nil {
		return storage.ErrCustomerNotFound
	}

	now := time.Now().UTC()
	customer.DeletedAt = &now
	s.customers[customerID] = customer

	for id, acct := range s.accounts {
		if acct.CustomerID == customerID && acct.ArchivedAt == nil {
			acct.ArchivedAt = &now
			s.accounts[id] = acct
		}
	}
	for email, cred := range s.credentials {
		if cred.CustomerID != nil && *cred.CustomerID == customerID {
			cred.DisabledAt = &now
			s.credentials[email] = cred
		}
	}
	return nil
}

func (s *Store) CreateStaff(_ context.Context, ns models.NewStaff) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(ns.Email)
	if _, taken := s.credentials[email]; taken {
		return models.Credential{}, storage.ErrDuplicateEmail
	}

	emp := models.Employee{
		ID:        s.nextID(),
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Email:     email,
		Position:  ns.Position,
	}
	s.employees[emp.ID] = emp

	cred := models.Credential{
		UserID:       s.nextID(),
		Email:        email,
		PasswordHash: ns.PasswordHash,
		Role:         ns.Role,
		EmployeeID:   models.Int64Ptr(emp.ID),
	}
	s.credentials[email] = cred
	return cred, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) CardByID(_ context.Context, cardID int64) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[cardID]
	if !ok {
		return models.Card{}, storage.ErrCardNotFound
	}
	return card, nil
}

var (
	_ ledger.Store            = (*Store)(nil)
	_ storage.CardStore       = (*Store)(nil)
	_ storage.LoanStore       = (*Store)(nil)
	_ storage.CustomerStore   = (*Store)(nil)
	_ storage.CredentialStore = (*Store)(nil)
)
