package services

import (
	"net/http"

	"github.com/ledgerbank/backend/internal/ledger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	engine *ledger.Engine
}

// BalanceResponse represents the balance enquiry payload
type BalanceResponse struct {
	AccountID    int64           `json:"account_id"`
	Balance      decimal.Decimal `json:"balance"`
	CardStatus   string          `json:"card_status"`
	CustomerName string          `json:"customer_name"`
}

// StatementResponse represents an account statement
type StatementResponse struct {
	AccountID        int64                   `json:"account_id"`
	Period           string                  `json:"period,omitempty"`
	CurrentBalance   decimal.Decimal         `json:"current_balance"`
	TransactionCount int                     `json:"transaction_count"`
	Transactions     []models.StatementEntry `json:"transactions"`
}

func NewAccountService(engine *ledger.Engine) *AccountService {
	return &AccountService{engine: engine}
}

// Balance returns the caller's balance and card status
// @Summary Balance enquiry
// @Tags accounts
// @Produce json
// @Param account_id query int false "Account (staff only)"
// @Success 200 {object} BalanceResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/balance [get]
func (as *AccountService) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := as.account(w, r)
	if !ok {
		return
	}

	summary, err := as.engine.GetBalance(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountID:    summary.AccountID,
		Balance:      summary.Balance,
		CardStatus:   summary.CardStatus,
		CustomerName: summary.CustomerName,
	})
}

// Statement returns transactions between two dates, newest first
// @Summary Account statement
// @Tags accounts
// @Produce json
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD, inclusive"
// @Param account_id query int false "Account (staff only)"
// @Success 200 {object} StatementResponse
// @Failure 400 {object} ErrorResponse
// @Router /accounts/statement [get]
func (as *AccountService) Statement(w http.ResponseWriter, r *http.Request) {
	accountID, ok := as.account(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	start, err := parseDate(q.Get("start_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseDate(q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	stmt, err := as.engine.GetStatement(r.Context(), accountID, ledger.Window{Start: start, End: end})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := StatementResponse{
		AccountID:        stmt.AccountID,
		CurrentBalance:   stmt.CurrentBalance,
		TransactionCount: len(stmt.Entries),
		Transactions:     stmt.Entries,
	}
	if start != nil || end != nil {
		resp.Period = q.Get("start_date") + " to " + q.Get("end_date")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (as *AccountService) account(w http.ResponseWriter, r *http.Request) (int64, bool) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	requested, err := queryAccountID(r)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	accountID, err := resolveAccount(p, requested)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return accountID, true
}
