// Package storage holds the errors shared by every store implementation.
package storage

import "errors"

var (
	ErrCardNotFound       = errors.New("card not found")
	ErrLoanTypeNotFound   = errors.New("loan type not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDuplicateEmail     = errors.New("email already registered")
)
