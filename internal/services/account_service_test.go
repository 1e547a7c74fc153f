package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Balance(t *testing.T) {
	h := newHarness(t)

	t.Run("customer sees own account", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance", h.token(t, ada), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[BalanceResponse](t, w)
		assert.Equal(t, int64(7), resp.AccountID)
		assert.True(t, resp.Balance.Equal(dec("50")))
		assert.Equal(t, "Active", resp.CardStatus)
		assert.Equal(t, "Ada Lovelace", resp.CustomerName)
	})

	t.Run("customer asking for a foreign account", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance?account_id=5", h.token(t, ada), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff names the account", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance?account_id=9", h.token(t, teller), "")
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[BalanceResponse](t, w)
		assert.Equal(t, "Blocked", resp.CardStatus)
		assert.Equal(t, "Alan Turing", resp.CustomerName)
	})

	t.Run("account without a card", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance?account_id=5", h.token(t, teller), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "No Card", decode[BalanceResponse](t, w).CardStatus)
	})

	t.Run("staff without account", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance", h.token(t, teller), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance?account_id=404", h.token(t, teller), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad account id", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance?account_id=abc", h.token(t, teller), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/balance", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAccountService_Statement(t *testing.T) {
	h := newHarness(t)
	staff := h.token(t, teller)

	for _, body := range []string{
		`{"from_account": 5, "to_account": 9, "amount": 5}`,
		`{"from_account": 9, "to_account": 5, "amount": 2}`,
	} {
		w := h.do(http.MethodPost, "/transactions/transfer", staff, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	t.Run("newest first with directions", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/statement?account_id=5", staff, "")
		require.Equal(t, http.StatusOK, w.Code)

		stmt := decode[StatementResponse](t, w)
		assert.Equal(t, int64(5), stmt.AccountID)
		assert.True(t, stmt.CurrentBalance.Equal(dec("17")))
		assert.Equal(t, 2, stmt.TransactionCount)
		assert.Empty(t, stmt.Period)

		require.Len(t, stmt.Transactions, 2)
		assert.Equal(t, "deposit", stmt.Transactions[0].Type)
		assert.Equal(t, int64(9), *stmt.Transactions[0].Counterparty)
		assert.Equal(t, "withdrawal", stmt.Transactions[1].Type)
	})

	t.Run("window", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/statement?account_id=5&start_date=2000-01-01&end_date=2000-12-31", staff, "")
		require.Equal(t, http.StatusOK, w.Code)

		stmt := decode[StatementResponse](t, w)
		assert.Equal(t, "2000-01-01 to 2000-12-31", stmt.Period)
		assert.Zero(t, stmt.TransactionCount)
		assert.NotNil(t, stmt.Transactions)
	})

	t.Run("inverted window", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/statement?account_id=5&start_date=2024-02-01&end_date=2024-01-01", staff, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		w := h.do(http.MethodGet, "/accounts/statement?account_id=5&start_date=01/02/2024", staff, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errInvalidDate.Error(), decode[ErrorResponse](t, w).Error)
	})
}
