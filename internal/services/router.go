package services

import (
	"github.com/go-chi/chi/v5"
	"github.com/ledgerbank/backend/internal/ledger"
	mW "github.com/ledgerbank/backend/internal/middleware"
	"github.com/ledgerbank/backend/internal/storage"
)

// Store is everything the HTTP layer needs from persistence beyond the ledger.
type Store interface {
	storage.CardStore
	storage.LoanStore
	storage.CustomerStore
	storage.Pinger
}

// Identity is the authentication surface used by the routes.
type Identity interface {
	Authenticator
	mW.TokenValidator
	PasswordHasher
}

// Mount registers every API route on r.
func Mount(r chi.Router, engine *ledger.Engine, store Store, identity Identity) {
	validator := NewValidationHelper()

	authService := NewAuthService(identity, validator)
	accountService := NewAccountService(engine)
	transactionService := NewTransactionService(engine, validator)
	loanService := NewLoanService(store, validator)
	cardService := NewCardService(store, validator)
	customerService := NewCustomerService(store, identity, validator)

	// Public endpoints (no auth required)
	r.Get("/health", Health(store))
	r.Post("/auth/login", authService.Login)

	// Protected endpoints (auth required)
	r.Group(func(r chi.Router) {
		r.Use(mW.Authenticate(identity))

		r.Post("/auth/logout", authService.Logout)

		r.Get("/accounts/balance", accountService.Balance)
		r.Get("/accounts/statement", accountService.Statement)

		r.Post("/transactions/transfer", transactionService.Transfer)
		r.Post("/transactions/deposit", transactionService.Deposit)
		r.Post("/transactions/withdraw", transactionService.Withdraw)

		r.Post("/loans/apply", loanService.Apply)
		r.Put("/cards/toggle-block", cardService.ToggleBlock)

		r.Group(func(r chi.Router) {
			r.Use(mW.RequireStaff)
			r.Post("/customers", customerService.Create)
			r.Delete("/customers/{id}", customerService.Delete)
		})
	})
}
