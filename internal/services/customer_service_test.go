package services

import (
	"net/http"
	"testing"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newCustomerBody = `{
	"first_name": "Grace",
	"last_name": "Hopper",
	"email": "grace@example.com",
	"password": "cobol-1959",
	"dob": "1906-12-09",
	"gender": "female"
}`

func TestCustomerService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	staff := h.token(t, teller)

	w := h.do(http.MethodPost, "/customers", staff, newCustomerBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[CreateCustomerResponse](t, w)
	assert.Equal(t, "success", created.Status)
	assert.NotZero(t, created.CustomerID)
	assert.NotZero(t, created.AccountID)

	customer, ok := h.store.Customer(created.CustomerID)
	require.True(t, ok)
	require.NotNil(t, customer.DOB)
	assert.Equal(t, "1906-12-09", customer.DOB.Format(dateLayout))
	assert.True(t, h.store.Balance(created.AccountID).IsZero())

	// the new customer can log in and sees the fresh account
	w = h.do(http.MethodPost, "/auth/login", "", `{"email": "grace@example.com", "password": "cobol-1959"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[TokenResponse](t, w).AccessToken

	w = h.do(http.MethodGet, "/accounts/balance", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	balance := decode[BalanceResponse](t, w)
	assert.Equal(t, created.AccountID, balance.AccountID)
	assert.Equal(t, "Active", balance.CardStatus)
	assert.Equal(t, "Grace Hopper", balance.CustomerName)

	w = h.do(http.MethodPost, "/customers", staff, newCustomerBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode[ErrorResponse](t, w).Error)

	path := "/customers/" + itoa(created.CustomerID)
	w = h.do(http.MethodDelete, path, staff, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodDelete, path, staff, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/auth/login", "", `{"email": "grace@example.com", "password": "cobol-1959"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/transactions/deposit", staff, `{"account_id": `+itoa(created.AccountID)+`, "amount": 5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerService_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short password", `{"first_name": "A", "last_name": "B", "email": "a@b.co", "password": "short"}`, "password"},
		{"bad email", `{"first_name": "A", "last_name": "B", "email": "nope", "password": "long-enough"}`, "email"},
		{"missing name", `{"last_name": "B", "email": "a@b.co", "password": "long-enough"}`, "first_name"},
		{"bad dob", `{"first_name": "A", "last_name": "B", "email": "a@b.co", "password": "long-enough", "dob": "09/12/1906"}`, "dob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			w := h.do(http.MethodPost, "/customers", h.token(t, teller), tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[ErrorResponse](t, w).Details, tt.field)
		})
	}
}

func TestCustomerService_StaffOnly(t *testing.T) {
	h := newHarness(t)
	admin := auth.Admin{Identity: auth.Identity{UserID: 700, Email: "root@bank.test"}, EmployeeID: 70}

	w := h.do(http.MethodPost, "/customers", h.token(t, ada), newCustomerBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodDelete, "/customers/1001", h.token(t, ada), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	_, ok := h.store.Customer(1001)
	assert.True(t, ok)

	w = h.do(http.MethodDelete, "/customers/abc", h.token(t, admin), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodDelete, "/customers/424242", h.token(t, admin), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/customers", "", newCustomerBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
