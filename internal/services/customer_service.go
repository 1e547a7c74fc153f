package services

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
)

// PasswordHasher derives the stored form of a password.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type CustomerService struct {
	store     storage.CustomerStore
	hasher    PasswordHasher
	validator *ValidationHelper
}

// CreateCustomerRequest represents a new account holder
type CreateCustomerRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	DOB       string `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender    string `json:"gender,omitempty" validate:"max=20"`
}

type CreateCustomerResponse struct {
	Status     string `json:"status"`
	CustomerID int64  `json:"customer_id"`
	AccountID  int64  `json:"account_id"`
}

func NewCustomerService(store storage.CustomerStore, hasher PasswordHasher, validator *ValidationHelper) *CustomerService {
	return &CustomerService{store: store, hasher: hasher, validator: validator}
}

// Create provisions a customer with an empty account, a card and a login
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body CreateCustomerRequest true "Customer"
// @Success 201 {object} CreateCustomerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /customers [post]
func (cs *CustomerService) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := cs.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	dob, err := parseDate(req.DOB)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hash, err := cs.hasher.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	prov, err := cs.store.CreateCustomer(r.Context(), models.NewCustomer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		DOB:          dob,
		Gender:       req.Gender,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Component(logger.FromContext(r.Context()), "customers").Info().
		Int64("customer_id", prov.CustomerID).
		Int64("account_id", prov.AccountID).
		Msg("customer created")
	writeJSON(w, http.StatusCreated, CreateCustomerResponse{
		Status:     "success",
		CustomerID: prov.CustomerID,
		AccountID:  prov.AccountID,
	})
}

// Delete soft-deletes a customer, archiving its accounts
// @Summary Delete customer
// @Tags customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /customers/{id} [delete]
func (cs *CustomerService) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, errInvalidID)
		return
	}

	if err := cs.store.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	logger.Component(logger.FromContext(r.Context()), "customers").Info().
		Int64("customer_id", id).
		Msg("customer deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
