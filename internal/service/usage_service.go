package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/pricing"
	"github.com/agoraai/backend/internal/repository"
)

// ErrInvalidAmount is returned when a caller asks to record a negative
// amount. The ledger never decrements.
var ErrInvalidAmount = errors.New("usage amount must be positive")

// UsageService is the entitlement checker and usage recorder: it compares
// ledger counters against the plan's catalog limits for the current civil
// (month, year) period.
//
// The check-then-increment sequence across two requests is deliberately not
// atomic; concurrent racers can transiently overshoot the limit. The upsert
// behind RecordUsage is atomic, so counts seen by subsequent requests are
// exact.
type UsageService struct {
	subs  SubscriptionStore
	usage UsageStore
	now   func() time.Time
}

// NewUsageService creates a new usage service
func NewUsageService(subs SubscriptionStore, usage UsageStore) *UsageService {
	return &UsageService{
		subs:  subs,
		usage: usage,
		now:   time.Now,
	}
}

// WithClock overrides the period clock. Tests use this to cross month
// boundaries.
func (s *UsageService) WithClock(now func() time.Time) *UsageService {
	s.now = now
	return s
}

// CurrentPeriod returns the civil month and year usage is keyed under.
func (s *UsageService) CurrentPeriod() (month, year int) {
	t := s.now().UTC()
	return int(t.Month()), t.Year()
}

// CheckAccess decides whether a user may consume amount units of a feature
// this period. amount defaults to 1; for character-counted features it is
// the length of the text to process. The feature tag is used verbatim: an
// unrecognized tag resolves to a zero limit and is denied rather than
// erroring. No side effects.
func (s *UsageService) CheckAccess(ctx context.Context, userID, feature string, amount int) (*models.UsageSnapshot, error) {
	if amount < 1 {
		amount = 1
	}

	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	month, year := s.CurrentPeriod()
	current, err := s.currentCount(ctx, userID, feature, month, year)
	if err != nil {
		return nil, err
	}

	return s.snapshot(plan, feature, current, amount), nil
}

// RecordUsage adds amount to the user's counter for the current period,
// creating the record when absent, and returns the updated snapshot.
// Callers invoke this only after the gated action has succeeded.
func (s *UsageService) RecordUsage(ctx context.Context, userID, feature string, amount int) (*models.UsageSnapshot, error) {
	if amount == 0 {
		amount = 1
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	month, year := s.CurrentPeriod()
	rec, err := s.usage.Add(ctx, userID, feature, month, year, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}

	return s.snapshot(plan, feature, rec.UsageCount, 1), nil
}

// AllUsage returns a snapshot for every metered feature in the current
// period, with absent counters reported as zero.
func (s *UsageService) AllUsage(ctx context.Context, userID string) ([]models.UsageSnapshot, error) {
	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	month, year := s.CurrentPeriod()
	records, err := s.usage.ListForPeriod(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(records))
	for _, rec := range records {
		counts[rec.Feature] = rec.UsageCount
	}

	snapshots := make([]models.UsageSnapshot, 0, len(models.MeteredFeatures))
	for _, feature := range models.MeteredFeatures {
		snapshots = append(snapshots, *s.snapshot(plan, feature, counts[feature], 1))
	}

	return snapshots, nil
}

// planFor resolves the user's plan, defaulting to free when no
// subscription row has been materialized.
func (s *UsageService) planFor(ctx context.Context, userID string) (string, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return models.PlanFree, nil
		}
		return "", err
	}
	return sub.Plan, nil
}

func (s *UsageService) currentCount(ctx context.Context, userID, feature string, month, year int) (int, error) {
	rec, err := s.usage.Get(ctx, userID, feature, month, year)
	if err != nil {
		if errors.Is(err, repository.ErrUsageNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.UsageCount, nil
}

// snapshot builds the entitlement view. allowed is current+amount <= limit;
// with the default amount of 1 this is exactly current < limit.
func (s *UsageService) snapshot(plan, feature string, current, amount int) *models.UsageSnapshot {
	limit := pricing.LimitFor(plan, feature)
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}

	return &models.UsageSnapshot{
		Feature:      feature,
		CurrentUsage: current,
		Limit:        limit,
		Remaining:    remaining,
		Allowed:      current+amount <= limit,
	}
}
