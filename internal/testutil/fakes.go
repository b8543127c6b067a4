// Package testutil provides in-memory fakes for the service-layer store
// interfaces so services and handlers can be tested without PostgreSQL.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/repository"
)

// FakeSubscriptionStore is an in-memory SubscriptionStore.
type FakeSubscriptionStore struct {
	mu   sync.Mutex
	rows map[string]*models.Subscription
}

// NewFakeSubscriptionStore creates an empty fake subscription store.
func NewFakeSubscriptionStore() *FakeSubscriptionStore {
	return &FakeSubscriptionStore{rows: make(map[string]*models.Subscription)}
}

// Get returns the subscription row for a user.
func (f *FakeSubscriptionStore) Get(_ context.Context, userID string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.rows[userID]
	if !ok {
		return nil, repository.ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

// Upsert updates or creates the user's subscription.
func (f *FakeSubscriptionStore) Upsert(_ context.Context, userID, plan, status string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	sub, ok := f.rows[userID]
	if !ok {
		sub = &models.Subscription{
			ID:        uuid.New().String(),
			UserID:    userID,
			StartDate: now,
		}
		f.rows[userID] = sub
	}
	sub.Plan = plan
	sub.Status = status
	sub.UpdatedAt = now
	cp := *sub
	return &cp, nil
}

// EnsureDefault creates a free/active row when none exists.
func (f *FakeSubscriptionStore) EnsureDefault(ctx context.Context, userID string) error {
	f.mu.Lock()
	_, ok := f.rows[userID]
	f.mu.Unlock()
	if ok {
		return nil
	}
	_, err := f.Upsert(ctx, userID, models.PlanFree, models.StatusActive)
	return err
}

// Count returns the number of materialized rows.
func (f *FakeSubscriptionStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

type usageKey struct {
	userID  string
	feature string
	month   int
	year    int
}

// FakeUsageStore is an in-memory UsageStore.
type FakeUsageStore struct {
	mu   sync.Mutex
	rows map[usageKey]*models.UsageRecord
}

// NewFakeUsageStore creates an empty fake usage store.
func NewFakeUsageStore() *FakeUsageStore {
	return &FakeUsageStore{rows: make(map[usageKey]*models.UsageRecord)}
}

// Get returns one counter.
func (f *FakeUsageStore) Get(_ context.Context, userID, feature string, month, year int) (*models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[usageKey{userID, feature, month, year}]
	if !ok {
		return nil, repository.ErrUsageNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListForPeriod returns a user's counters for one period.
func (f *FakeUsageStore) ListForPeriod(_ context.Context, userID string, month, year int) ([]models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UsageRecord
	for k, rec := range f.rows {
		if k.userID == userID && k.month == month && k.year == year {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out, nil
}

// ListForPeriodAll returns every user's counters for one period.
func (f *FakeUsageStore) ListForPeriodAll(_ context.Context, month, year int) ([]models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UsageRecord
	for k, rec := range f.rows {
		if k.month == month && k.year == year {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Feature < out[j].Feature
	})
	return out, nil
}

// Add increments a counter, creating the row when absent.
func (f *FakeUsageStore) Add(_ context.Context, userID, feature string, month, year, amount int) (*models.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey{userID, feature, month, year}
	rec, ok := f.rows[key]
	if !ok {
		rec = &models.UsageRecord{
			ID:      uuid.New().String(),
			UserID:  userID,
			Feature: feature,
			Month:   month,
			Year:    year,
		}
		f.rows[key] = rec
	}
	rec.UsageCount += amount
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

// ResetFeature zeroes one counter.
func (f *FakeUsageStore) ResetFeature(_ context.Context, userID, feature string, month, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.rows[usageKey{userID, feature, month, year}]; ok {
		rec.UsageCount = 0
		rec.UpdatedAt = time.Now()
	}
	return nil
}

// ResetAll zeroes every counter a user has in one period.
func (f *FakeUsageStore) ResetAll(_ context.Context, userID string, month, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, rec := range f.rows {
		if k.userID == userID && k.month == month && k.year == year {
			rec.UsageCount = 0
			rec.UpdatedAt = time.Now()
		}
	}
	return nil
}

// Count returns the total number of ledger rows across all periods.
func (f *FakeUsageStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

// TotalsByFeature sums one period's usage per feature.
func (f *FakeUsageStore) TotalsByFeature(_ context.Context, month, year int) ([]models.FeatureTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sums := make(map[string]int64)
	for k, rec := range f.rows {
		if k.month == month && k.year == year {
			sums[k.feature] += int64(rec.UsageCount)
		}
	}
	var out []models.FeatureTotal
	for feature, total := range sums {
		out = append(out, models.FeatureTotal{Feature: feature, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out, nil
}

// FakeUserStore is an in-memory UserStore for the admin service.
type FakeUserStore struct {
	mu      sync.Mutex
	Users   map[string]*models.User
	Deleted []string
}

// NewFakeUserStore creates a fake user store seeded with the given users.
func NewFakeUserStore(users ...*models.User) *FakeUserStore {
	f := &FakeUserStore{Users: make(map[string]*models.User)}
	for _, u := range users {
		f.Users[u.ID] = u
	}
	return f
}

// Delete removes a user and records the deletion.
func (f *FakeUserStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.Users, id)
	f.Deleted = append(f.Deleted, id)
	return nil
}

// Count returns the number of users.
func (f *FakeUserStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.Users)), nil
}

// ListWithDetails returns all users without subscriptions attached.
func (f *FakeUserStore) ListWithDetails(_ context.Context) ([]models.AdminUserEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AdminUserEntry
	for _, u := range f.Users {
		out = append(out, models.AdminUserEntry{User: *u, UsageRecords: []models.UsageRecord{}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out, nil
}

// FakeBillingStore is an in-memory BillingStore.
type FakeBillingStore struct {
	mu      sync.Mutex
	Records []models.BillingRecord
}

// NewFakeBillingStore creates an empty fake billing store.
func NewFakeBillingStore() *FakeBillingStore {
	return &FakeBillingStore{}
}

// Create appends a billing record.
func (f *FakeBillingStore) Create(_ context.Context, rec *models.BillingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, *rec)
	return nil
}

// FakeChatStats is a ChatStatsStore with a fixed count.
type FakeChatStats struct {
	Sessions int64
}

// CountSessions returns the configured count.
func (f *FakeChatStats) CountSessions(_ context.Context) (int64, error) {
	return f.Sessions, nil
}
