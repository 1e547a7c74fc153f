package services

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/ledgerbank/backend/internal/storage"
)

var (
	errForbidden       = errors.New("access to this resource is not permitted")
	errAccountRequired = errors.New("staff requests must name the account")
	errCardRequired    = errors.New("staff requests must name the card")
	errInvalidDate     = errors.New("dates must use the YYYY-MM-DD format")
	errInvalidDueDate  = errors.New("due date must be after the start date")
	errInvalidPaid     = errors.New("amount paid must not be negative")
	errInvalidID       = errors.New("invalid identifier")
	errUnauthenticated = errors.New("authentication required")
)

// writeError maps err onto a status code and a client-safe message. Store
// failures are logged and never shown to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &fieldErrs):
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, fieldErrs)
	case errors.Is(err, errMalformedBody):
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidAmount):
		SendErrorResponse(w, "Amount must be positive, at most 999999999999.99, with at most two decimal places", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ledger.ErrBalanceLimit):
		SendErrorResponse(w, "Resulting balance would exceed the account limit", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		SendErrorResponse(w, "Insufficient funds", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrSamePartyTransfer):
		SendErrorResponse(w, "Cannot transfer to the same account", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidDescription):
		SendErrorResponse(w, "Description must be at most 100 characters", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidWindow):
		SendErrorResponse(w, "Start date must not be after end date", http.StatusBadRequest, nil)
	case errors.Is(err, storage.ErrDuplicateEmail):
		SendErrorResponse(w, "Email already registered", http.StatusBadRequest, nil)
	case errors.Is(err, errAccountRequired), errors.Is(err, errCardRequired),
		errors.Is(err, errInvalidDate), errors.Is(err, errInvalidDueDate),
		errors.Is(err, errInvalidPaid), errors.Is(err, errInvalidID):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)

	case errors.Is(err, ledger.ErrAccountNotFound):
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
	case errors.Is(err, storage.ErrCardNotFound):
		SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
	case errors.Is(err, storage.ErrLoanTypeNotFound):
		SendErrorResponse(w, "Loan type not found", http.StatusNotFound, nil)
	case errors.Is(err, storage.ErrCustomerNotFound):
		SendErrorResponse(w, "Customer not found", http.StatusNotFound, nil)

	case errors.Is(err, auth.ErrInvalidCredential), errors.Is(err, errUnauthenticated):
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
	case errors.Is(err, auth.ErrTooManyAttempts):
		SendErrorResponse(w, "Too many failed login attempts, try again later", http.StatusUnauthorized, nil)
	case errors.Is(err, errForbidden):
		SendErrorResponse(w, "Forbidden", http.StatusForbidden, nil)

	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
	}
}
