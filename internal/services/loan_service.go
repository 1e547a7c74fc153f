package services

import (
	"net/http"
	"time"

	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/shopspring/decimal"
)

type LoanService struct {
	store     storage.LoanStore
	validator *ValidationHelper
	now       func() time.Time
}

// LoanApplication represents a loan request
type LoanApplication struct {
	AccountID  *int64           `json:"account_id,omitempty" validate:"omitempty,gt=0"`
	LoanTypeID int64            `json:"loan_type_id" validate:"required,gt=0"`
	DueDate    string           `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`
}

// LoanDetails describes an approved loan
type LoanDetails struct {
	LoanType     string          `json:"loan_type"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	StartDate    string          `json:"start_date"`
	DueDate      string          `json:"due_date"`
}

type LoanResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	LoanID  int64       `json:"loan_id"`
	Details LoanDetails `json:"details"`
}

func NewLoanService(store storage.LoanStore, validator *ValidationHelper) *LoanService {
	return &LoanService{
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Apply records a loan against an account
// @Summary Apply for a loan
// @Tags loans
// @Accept json
// @Produce json
// @Param request body LoanApplication true "Loan application"
// @Success 201 {object} LoanResponse
// @Failure 404 {object} ErrorResponse
// @Router /loans/apply [post]
func (ls *LoanService) Apply(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req LoanApplication
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := ls.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	accountID, err := resolveAccount(p, req.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	loan, err := ls.buildLoan(accountID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	loan, loanType, err := ls.store.ApplyLoan(r.Context(), loan)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info().
		Int64("loan_id", loan.ID).
		Int64("account_id", accountID).
		Str("loan_type", loanType.Type).
		Msg("loan approved")

	writeJSON(w, http.StatusCreated, LoanResponse{
		Status:  "success",
		Message: "Loan approved",
		LoanID:  loan.ID,
		Details: LoanDetails{
			LoanType:     loanType.Type,
			InterestRate: loanType.BaseInterestRate,
			StartDate:    loan.StartDate.Format(dateLayout),
			DueDate:      loan.DueDate.Format(dateLayout),
		},
	})
}

func (ls *LoanService) buildLoan(accountID int64, req LoanApplication) (models.Loan, error) {
	now := ls.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	due := start.Add(models.DefaultLoanTerm)
	if req.DueDate != "" {
		parsed, err := parseDate(req.DueDate)
		if err != nil {
			return models.Loan{}, err
		}
		due = *parsed
	}
	if !due.After(start) {
		return models.Loan{}, errInvalidDueDate
	}

	paid := decimal.Zero
	if req.AmountPaid != nil {
		paid = *req.AmountPaid
	}
	if paid.IsNegative() {
		return models.Loan{}, errInvalidPaid
	}
	if !models.FitsCurrency(paid) {
		return models.Loan{}, ledger.ErrInvalidAmount
	}

	return models.Loan{
		AccountID:  accountID,
		LoanTypeID: req.LoanTypeID,
		StartDate:  start,
		DueDate:    due,
		AmountPaid: paid,
	}, nil
}
