package models

import (
	"time"
)

// Plan constants
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// StatusActive is the only subscription status the system sets today.
// The field is kept for a future billing-provider integration.
const StatusActive = "active"

// Subscription is the single plan record a user owns. At most one row
// exists per user; absence means an implicit free/active subscription.
type Subscription struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Plan      string     `json:"plan" db:"plan"`
	Status    string     `json:"status" db:"status"`
	StartDate time.Time  `json:"startDate" db:"start_date"`
	EndDate   *time.Time `json:"endDate,omitempty" db:"end_date"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// DefaultSubscription returns the virtual free/active subscription used
// when no row has been materialized for the user.
func DefaultSubscription(userID string) *Subscription {
	return &Subscription{
		UserID: userID,
		Plan:   PlanFree,
		Status: StatusActive,
	}
}

// SubscriptionResponse is the API shape for a subscription.
type SubscriptionResponse struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// ToResponse converts a Subscription to its API shape.
func (s *Subscription) ToResponse() SubscriptionResponse {
	return SubscriptionResponse{
		Plan:      s.Plan,
		Status:    s.Status,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
	}
}
