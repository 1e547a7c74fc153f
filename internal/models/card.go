package models

import "time"

// Card is a payment card attached to an account.
type Card struct {
	ID        int64     `json:"id" db:"id"`
	AccountID int64     `json:"account_id" db:"account_id"`
	IsBlocked bool      `json:"is_blocked" db:"is_blocked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Toggle outcomes.
const (
	ToggleStatusSuccess  = "success"
	ToggleStatusNoChange = "no_change"
)

// CardToggle is the result of a block/unblock request.
type CardToggle struct {
	Status    string `json:"status"`
	CardID    int64  `json:"card_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
