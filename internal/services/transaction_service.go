package services

import (
	"net/http"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/shopspring/decimal"
)

// TransactionService exposes the money movements of the ledger engine.
type TransactionService struct {
	engine    *ledger.Engine
	validator *ValidationHelper
}

// TransferRequest represents a transfer between two accounts
type TransferRequest struct {
	FromAccount *int64          `json:"from_account,omitempty" validate:"omitempty,gt=0"` // Sender, staff only
	ToAccount   int64           `json:"to_account" validate:"required,gt=0"`              // Receiver
	Amount      decimal.Decimal `json:"amount"`                                           // Positive, two decimals
	Description string          `json:"description,omitempty" validate:"max=100"`
}

// MovementRequest represents a deposit or a withdrawal
type MovementRequest struct {
	AccountID *int64          `json:"account_id,omitempty" validate:"omitempty,gt=0"` // Staff only
	Amount    decimal.Decimal `json:"amount"`
}

// MovementResponse is returned for every committed movement
type MovementResponse struct {
	Status        string          `json:"status"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	TransactionID int64           `json:"transaction_id"`
}

func NewTransactionService(engine *ledger.Engine, validator *ValidationHelper) *TransactionService {
	return &TransactionService{engine: engine, validator: validator}
}

// Transfer handles money transfer between accounts
// @Summary Transfer funds
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer request"
// @Success 201 {object} MovementResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions/transfer [post]
func (ts *TransactionService) Transfer(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := ts.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	from, err := resolveAccount(p, req.FromAccount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := ts.engine.Transfer(r.Context(), ledger.TransferRequest{
		From:        from,
		To:          req.ToAccount,
		Amount:      req.Amount,
		Description: req.Description,
		ActorID:     auth.ActorID(p),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info().
		Int64("transaction_id", res.TransactionID).
		Int64("from_account", from).
		Int64("to_account", req.ToAccount).
		Msg("transfer completed")
	writeJSON(w, http.StatusCreated, movementResponse(res))
}

// Deposit credits an account
// @Summary Deposit funds
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body MovementRequest true "Deposit request"
// @Success 201 {object} MovementResponse
// @Router /transactions/deposit [post]
func (ts *TransactionService) Deposit(w http.ResponseWriter, r *http.Request) {
	p, accountID, req, ok := ts.movement(w, r)
	if !ok {
		return
	}

	res, err := ts.engine.Deposit(r.Context(), accountID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info().
		Int64("transaction_id", res.TransactionID).
		Int64("account_id", accountID).
		Int64("actor", auth.ActorID(p)).
		Msg("deposit completed")
	writeJSON(w, http.StatusCreated, movementResponse(res))
}

// Withdraw debits an account
// @Summary Withdraw funds
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body MovementRequest true "Withdrawal request"
// @Success 201 {object} MovementResponse
// @Router /transactions/withdraw [post]
func (ts *TransactionService) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, accountID, req, ok := ts.movement(w, r)
	if !ok {
		return
	}

	res, err := ts.engine.Withdraw(r.Context(), accountID, req.Amount, auth.ActorID(p))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info().
		Int64("transaction_id", res.TransactionID).
		Int64("account_id", accountID).
		Msg("withdrawal completed")
	writeJSON(w, http.StatusCreated, movementResponse(res))
}

func (ts *TransactionService) movement(w http.ResponseWriter, r *http.Request) (auth.Principal, int64, MovementRequest, bool) {
	var req MovementRequest

	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return nil, 0, req, false
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return nil, 0, req, false
	}
	if err := ts.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return nil, 0, req, false
	}

	accountID, err := resolveAccount(p, req.AccountID)
	if err != nil {
		writeError(w, r, err)
		return nil, 0, req, false
	}
	return p, accountID, req, true
}

func movementResponse(res ledger.Result) MovementResponse {
	return MovementResponse{Status: "success", NewBalance: res.NewBalance, TransactionID: res.TransactionID}
}
