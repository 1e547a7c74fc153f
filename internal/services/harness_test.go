package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testArgon2 = config.Argon2Config{Time: 1, Memory: 64, Threads: 1, KeyLength: 16, SaltLength: 8}

var (
	ada = auth.Customer{
		Identity:   auth.Identity{UserID: 500, Email: "ada@example.com"},
		AccountID:  7,
		CustomerID: 1000,
	}
	teller = auth.Employee{
		Identity:   auth.Identity{UserID: 600, Email: "teller@bank.test"},
		EmployeeID: 60,
	}
)

// fakeSessions is an in-process auth.SessionStore.
type fakeSessions struct {
	mu       sync.Mutex
	revoked  map[string]bool
	failures map[string]int64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{revoked: map[string]bool{}, failures: map[string]int64{}}
}

func (f *fakeSessions) Revoke(_ context.Context, id string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[id] = true
	return nil
}

func (f *fakeSessions) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[id], nil
}

func (f *fakeSessions) RecordFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[email]++
	return f.failures[email], nil
}

func (f *fakeSessions) Failures(_ context.Context, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[email], nil
}

func (f *fakeSessions) ResetFailures(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, email)
	return nil
}

type harness struct {
	store  *memory.Store
	issuer *auth.TokenIssuer
	hasher *auth.PasswordHasher
	router chi.Router
}

// newHarness seeds two customers: Ada owns account 7 (50.00, active card 70)
// and Alan owns accounts 5 (20.00) and 9 (0, blocked card 90).
func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	store.PutCustomer(models.Customer{ID: 1000, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	store.PutCustomer(models.Customer{ID: 1001, FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"})
	store.PutAccount(models.Account{ID: 7, CustomerID: 1000, Balance: dec("50")})
	store.PutAccount(models.Account{ID: 5, CustomerID: 1001, Balance: dec("20")})
	store.PutAccount(models.Account{ID: 9, CustomerID: 1001, Balance: decimal.Zero})
	store.PutCard(models.Card{ID: 70, AccountID: 7})
	store.PutCard(models.Card{ID: 90, AccountID: 9, IsBlocked: true})
	store.PutLoanType(models.LoanType{ID: 300, Type: "Personal", BaseInterestRate: dec("9.50")})

	hasher := auth.NewPasswordHasher(testArgon2)
	issuer := auth.NewTokenIssuer(config.JWTConfig{SecretKey: "test-secret", Expiry: time.Hour, Issuer: "ledgerbank"})
	authn := auth.NewAuthenticator(store, hasher, issuer, newFakeSessions(),
		config.AuthConfig{MaxFailedLogins: 3, LockoutWindow: time.Minute}, zerolog.Nop())

	r := chi.NewRouter()
	Mount(r, ledger.NewEngine(store), store, authn)

	return &harness{store: store, issuer: issuer, hasher: hasher, router: r}
}

func (h *harness) token(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, err := h.issuer.Issue(p)
	require.NoError(t, err)
	return tok.AccessToken
}

// addCredential stores a login for p with the given password.
func (h *harness) addCredential(t *testing.T, p auth.Principal, password string) {
	t.Helper()
	hash, err := h.hasher.Hash(password)
	require.NoError(t, err)

	cred := models.Credential{
		UserID:       p.Ident().UserID,
		Email:        p.Ident().Email,
		PasswordHash: hash,
		Role:         p.Role(),
	}
	switch p := p.(type) {
	case auth.Customer:
		cred.AccountID = models.Int64Ptr(p.AccountID)
		cred.CustomerID = models.Int64Ptr(p.CustomerID)
	case auth.Employee:
		cred.EmployeeID = models.Int64Ptr(p.EmployeeID)
	case auth.Admin:
		cred.EmployeeID = models.Int64Ptr(p.EmployeeID)
	}
	h.store.PutCredential(cred)
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
