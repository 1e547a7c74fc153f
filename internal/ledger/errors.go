package ledger

import "errors"

var (
	// ErrInvalidAmount is returned for non-positive amounts, amounts finer
	// than currency precision and amounts above models.MaxAmount.
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")

	// ErrBalanceLimit is returned when a credit would lift a balance above
	// models.MaxAmount.
	ErrBalanceLimit = errors.New("resulting balance exceeds the account limit")

	// ErrAccountNotFound is returned when an account id does not resolve to an
	// open account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSamePartyTransfer is returned when sender and receiver are the same account.
	ErrSamePartyTransfer = errors.New("cannot transfer to the same account")

	// ErrInvalidDescription is returned when a description exceeds MaxDescriptionLength.
	ErrInvalidDescription = errors.New("description too long")

	// ErrInvalidWindow is returned when a statement window ends before it starts.
	ErrInvalidWindow = errors.New("start_date must not be after end_date")

	// ErrStoreUnavailable is returned when the store times out or fails unexpectedly.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRetryable marks a transient store failure that is safe to retry
	// because nothing was applied.
	ErrRetryable = errors.New("transient store failure")
)

var businessErrors = []error{
	ErrInvalidAmount,
	ErrBalanceLimit,
	ErrAccountNotFound,
	ErrInsufficientFunds,
	ErrSamePartyTransfer,
	ErrInvalidDescription,
	ErrInvalidWindow,
}

// IsBusinessError reports whether err is a validation or business-rule failure
// rather than a store failure.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
