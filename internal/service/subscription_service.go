package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/repository"
)

// ErrInvalidPlan is returned when a plan identifier is not in the catalog
var ErrInvalidPlan = errors.New("invalid plan")

// SubscriptionService manages the single subscription record a user owns.
type SubscriptionService struct {
	subs    SubscriptionStore
	billing BillingStore
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subs SubscriptionStore, billing BillingStore) *SubscriptionService {
	return &SubscriptionService{
		subs:    subs,
		billing: billing,
	}
}

// EnsureDefault creates a free/active subscription when none exists.
// Idempotent.
func (s *SubscriptionService) EnsureDefault(ctx context.Context, userID string) error {
	return s.subs.EnsureDefault(ctx, userID)
}

// GetCurrent returns the user's subscription, or the virtual free/active
// default when no row exists. The default is never persisted here.
func (s *SubscriptionService) GetCurrent(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return models.DefaultSubscription(userID), nil
		}
		return nil, err
	}
	return sub, nil
}

// SetPlan validates the plan against the catalog and upserts the
// subscription to it with status active. The existing row is left
// untouched on validation failure. A billing history entry is written
// with the catalog price of the new plan.
func (s *SubscriptionService) SetPlan(ctx context.Context, userID, plan string) (*models.Subscription, error) {
	tier, ok := pricing.Get(plan)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, plan)
	}

	sub, err := s.subs.Upsert(ctx, userID, plan, models.StatusActive)
	if err != nil {
		return nil, err
	}

	if err := s.billing.Create(ctx, &models.BillingRecord{
		UserID: userID,
		Plan:   plan,
		Amount: tier.Price,
	}); err != nil {
		// The plan change already took effect; billing history is advisory.
		log.Warn().Err(err).Str("component", "subscription").Str("user_id", userID).
			Msg("failed to write billing history entry")
	}

	return sub, nil
}
