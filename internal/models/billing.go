package models

import (
	"time"
)

// BillingRecord is an entry in a user's billing history, written whenever
// the plan changes. There is no payment provider behind it; the amount is
// the catalog price of the plan at the time of the change.
type BillingRecord struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Plan      string    `json:"plan" db:"plan"`
	Amount    float64   `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
